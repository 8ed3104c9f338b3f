package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/craftedby/marketplace/internal/apperr"
	"github.com/craftedby/marketplace/internal/auth"
	"github.com/craftedby/marketplace/internal/http/apierr"
	"github.com/craftedby/marketplace/pkg/validator"
)

// responder centralizes JSON encoding and error mapping for all handlers.
type responder struct {
	logger    *slog.Logger
	validator validator.Validator
}

func (re responder) JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		re.logger.ErrorContext(r.Context(), "error encoding response", slog.Any("error", err))
	}
}

func (re responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	re.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	if err := json.NewEncoder(w).Encode(res); err != nil {
		re.logger.ErrorContext(r.Context(), "error encoding error response", slog.Any("error", err))
	}
}

// Decode unmarshals and validates a JSON request body.
func (re responder) Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.ValidationErr.WrapParent(fmt.Errorf("decode body: %w", err))
	}

	if err := re.validator.Validate(v); err != nil {
		return err
	}

	return nil
}

// principal extracts the authenticated principal; the auth middleware
// guarantees it is present on protected routes.
func principalFromRequest(r *http.Request) (auth.Principal, error) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.Principal{}, apperr.UnauthenticatedErr
	}
	return principal, nil
}
