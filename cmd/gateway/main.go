package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	api "github.com/mind-engage/mindengage-bigfive/internal/api/http"
	"github.com/mind-engage/mindengage-bigfive/internal/archetype"
	auth "github.com/mind-engage/mindengage-bigfive/internal/auth/middleware"
	"github.com/mind-engage/mindengage-bigfive/internal/backend"
	"github.com/mind-engage/mindengage-bigfive/internal/config"
	"github.com/mind-engage/mindengage-bigfive/internal/db"
	"github.com/mind-engage/mindengage-bigfive/internal/freecode"
	"github.com/mind-engage/mindengage-bigfive/internal/gate"
	"github.com/mind-engage/mindengage-bigfive/internal/logging"
	"github.com/mind-engage/mindengage-bigfive/internal/metrics"
	"github.com/mind-engage/mindengage-bigfive/internal/payment"
	"github.com/mind-engage/mindengage-bigfive/internal/quiz"
	"github.com/mind-engage/mindengage-bigfive/internal/report"
	"github.com/mind-engage/mindengage-bigfive/internal/session"
	storage "github.com/mind-engage/mindengage-bigfive/internal/storage"
	syncx "github.com/mind-engage/mindengage-bigfive/internal/sync"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Mode == config.ModeOnline, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("gateway stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbh.Close()

	// --- Content ---
	catalog, err := quiz.LoadCatalogFile(cfg.CatalogFile)
	if err != nil {
		return err
	}
	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		return err
	}
	archetypes, err := archetype.Load(bs, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.MustNew(reg)

	renderer, err := report.NewRenderer(archetypes, cfg.ReportCacheSize, m)
	if err != nil {
		return err
	}

	access := &api.Access{
		Sessions: session.NewSQLStore(dbh),
		Codes:    freecode.NewStore(dbh),
		Renderer: renderer,
		Events:   syncx.NewEventRepo(dbh),
		Log:      logger,
	}
	stripe, err := payment.NewStripe(payment.Config{
		SecretKey:  cfg.StripeSecretKey,
		APIURL:     cfg.StripeAPIURL,
		PriceCents: cfg.ReportPriceCents,
		Currency:   cfg.ReportCurrency,
	})
	switch {
	case err == nil:
		access.Payments = stripe
	case errors.Is(err, payment.ErrNotConfigured):
		logger.Warn("STRIPE_SECRET_KEY not set; checkout disabled")
	default:
		return err
	}

	gateOpts := []gate.Option{gate.WithTimeout(cfg.GateTimeout), gate.WithLogger(logger), gate.WithMetrics(m)}
	newGate := api.InProcessGate(access, gateOpts...)
	if cfg.GateBackendURL != "" {
		client := backend.New(backend.Config{BaseURL: cfg.GateBackendURL, Timeout: cfg.GateTimeout})
		newGate = func(r *http.Request) *gate.Gate {
			c := client.WithCookies(r.Cookies())
			sa := access.For(auth.SessionIDFromContext(r.Context()))
			return gate.New(c, c, c, append([]gate.Option{gate.WithSession(sa)}, gateOpts...)...)
		}
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.RequestLogger(logger), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mountOpsRoutes(r, dbh, archetypes, m)
	(&api.API{
		Access:          access,
		Scorer:          quiz.NewScorer(catalog),
		Auth:            auth.NewAuthService(cfg.SessionSecret),
		Metrics:         m,
		Log:             logger,
		PublicURL:       cfg.PublicURL,
		SecureCookies:   cfg.SecureCookies,
		OwnerSecretHash: cfg.OwnerSecretHash,
		Gate:            newGate,
	}).Routes(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("mode", string(cfg.Mode)),
			zap.String("db", cfg.DBDriver),
			zap.Int("archetypes", archetypes.Len()),
			zap.Bool("gate_remote", cfg.GateBackendURL != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutCtx)
	})
	return g.Wait()
}
