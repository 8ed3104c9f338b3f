package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/craftedby/marketplace/internal/auth"
	"github.com/craftedby/marketplace/internal/config"
	"github.com/craftedby/marketplace/internal/http/metric"
	"github.com/craftedby/marketplace/internal/http/middleware"
	"github.com/craftedby/marketplace/internal/http/swagger"
	"github.com/craftedby/marketplace/internal/model"
	"github.com/craftedby/marketplace/internal/service"
	"github.com/craftedby/marketplace/pkg/validator"
)

var tracer = otel.Tracer("internal/http")

// Service represents the HTTP service.
type Service struct {
	cfg     config.HTTP
	logger  *slog.Logger
	metrics *metric.Metrics
	tokens  *auth.TokenManager

	authSvc    service.AuthService
	catalogSvc service.CatalogService
	orderSvc   service.OrderService
	reportSvc  service.ReportService

	re responder
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	log *slog.Logger,
	tokens *auth.TokenManager,
	v validator.Validator,
	authSvc service.AuthService,
	catalogSvc service.CatalogService,
	orderSvc service.OrderService,
	reportSvc service.ReportService,
) *Service {
	logger := log.With(slog.String("service", "http"))
	return &Service{
		cfg:        cfg,
		logger:     logger,
		metrics:    metric.New(),
		tokens:     tokens,
		authSvc:    authSvc,
		catalogSvc: catalogSvc,
		orderSvc:   orderSvc,
		reportSvc:  reportSvc,
		re:         responder{logger: logger, validator: v},
	}
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		swagger.Register(r)
	}

	s.RegisterHandlers(r)

	return s.RunWithServer(ctx, r)
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	authHandler := newAuthHandler(s.re, s.authSvc)
	productHandler := newProductHandler(s.re, s.catalogSvc)
	orderHandler := newOrderHandler(s.re, s.orderSvc)
	reportHandler := newReportHandler(s.re, s.reportSvc)

	authenticate := middleware.Authenticate(s.tokens)
	sellerOnly := middleware.RequireRoles(model.RoleArtisan, model.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Get("/search", productHandler.SearchProducts)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, sellerOnly)
				r.Post("/", productHandler.CreateProduct)
				r.Get("/mine", productHandler.ListMyProducts)
				r.Put("/{id}", productHandler.UpdateProduct)
			})

			r.Get("/{id}", productHandler.GetProduct)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", orderHandler.PlaceOrder)
			r.Get("/my", orderHandler.ListMyOrders)

			r.Group(func(r chi.Router) {
				r.Use(sellerOnly)
				r.Get("/by-artisan", orderHandler.ListOrdersByArtisan)
				r.Get("/by-artisan/{id}", orderHandler.GetOrderDetailForArtisan)
			})

			r.Get("/{id}", orderHandler.GetOrderByID)
			r.Get("/{id}/invoice", orderHandler.GetInvoice)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(authenticate, sellerOnly)

			r.Get("/overview", reportHandler.Overview)
			r.Get("/low-stock", reportHandler.LowStock)
			r.Get("/sales-daily", reportHandler.SalesDaily)
		})
	})

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))
}
