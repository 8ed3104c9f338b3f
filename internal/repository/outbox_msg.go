package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/craftedby/marketplace/internal/storage/db"
)

type CreateOutboxMsgParams struct {
	Topic        string
	Headers      map[string]string
	Payload      json.RawMessage
	PartitionKey *string
}

type ListUnprocessedOutboxMsgsParams struct {
	BatchSize int32
}

type ListUnprocessedOutboxMsgsResult struct {
	ID           uuid.UUID
	Topic        string
	Headers      map[string]string
	Payload      json.RawMessage
	PartitionKey *string
}

type BulkUpdateOutboxMsgsItem struct {
	ID    uuid.UUID
	Error *string
}

type BulkUpdateOutboxMsgsParams struct {
	Items []BulkUpdateOutboxMsgsItem
}

type OutboxMsgRepository interface {
	WithDB(db db.DB) OutboxMsgRepository
	CreateOutboxMsg(ctx context.Context, params CreateOutboxMsgParams) error
	ListUnprocessedOutboxMsgs(ctx context.Context, params ListUnprocessedOutboxMsgsParams) ([]ListUnprocessedOutboxMsgsResult, error)
	BulkUpdateOutboxMsgs(ctx context.Context, params BulkUpdateOutboxMsgsParams) error
}

type outboxMsgRepository struct {
	db db.DB
}

func NewOutboxMsgRepository(db db.DB) OutboxMsgRepository {
	return &outboxMsgRepository{db: db}
}

func (r outboxMsgRepository) WithDB(db db.DB) OutboxMsgRepository {
	return &outboxMsgRepository{db: db}
}

func (r outboxMsgRepository) CreateOutboxMsg(ctx context.Context, params CreateOutboxMsgParams) error {
	headersBytes, err := json.Marshal(params.Headers)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}

	query := `
		INSERT INTO outbox_msgs (topic, headers, payload, partition_key)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.Exec(ctx, query,
		params.Topic,
		headersBytes,
		[]byte(params.Payload),
		params.PartitionKey,
	); err != nil {
		return fmt.Errorf("create outbox msg: %w", err)
	}

	return nil
}

func (r outboxMsgRepository) ListUnprocessedOutboxMsgs(ctx context.Context, params ListUnprocessedOutboxMsgsParams) ([]ListUnprocessedOutboxMsgsResult, error) {
	// SKIP LOCKED lets multiple relay instances drain the outbox without
	// blocking each other.
	query := `
		SELECT id, topic, headers, payload, partition_key
		FROM outbox_msgs
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.db.Query(ctx, query, params.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed outbox msgs: %w", err)
	}
	defer rows.Close()

	msgs := make([]ListUnprocessedOutboxMsgsResult, 0)
	for rows.Next() {
		var (
			msg          ListUnprocessedOutboxMsgsResult
			headersBytes []byte
		)
		if err := rows.Scan(&msg.ID, &msg.Topic, &headersBytes, &msg.Payload, &msg.PartitionKey); err != nil {
			return nil, fmt.Errorf("scan outbox msg: %w", err)
		}
		if headersBytes != nil {
			if err := json.Unmarshal(headersBytes, &msg.Headers); err != nil {
				return nil, fmt.Errorf("unmarshal headers: %w", err)
			}
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox msgs: %w", err)
	}

	return msgs, nil
}

func (r outboxMsgRepository) BulkUpdateOutboxMsgs(ctx context.Context, params BulkUpdateOutboxMsgsParams) error {
	query := `
		UPDATE outbox_msgs
		SET processed_at = $2, error = $3
		WHERE id = $1
	`

	now := time.Now()
	batch := &pgx.Batch{}
	for _, item := range params.Items {
		var processedAt *time.Time
		if item.Error == nil {
			processedAt = &now
		}
		batch.Queue(query, item.ID, processedAt, item.Error)
	}

	results := r.db.SendBatch(ctx, batch)
	defer func() {
		//nolint:errcheck
		results.Close()
	}()

	for range params.Items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("update outbox msg: %w", err)
		}
	}

	return nil
}
