package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vshulcz/Cubeship/internal/adapters/http/ginserver"
	"github.com/vshulcz/Cubeship/internal/adapters/http/ginserver/middlewares"
	"github.com/vshulcz/Cubeship/internal/config"
	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/ports"
	"github.com/vshulcz/Cubeship/internal/services/events"
	"github.com/vshulcz/Cubeship/pkg/observer"
)

const shutdownTimeout = 5 * time.Second

type app struct {
	logger    *zap.Logger
	repo      ports.EventRepo
	persister ports.Persister
	handler   http.Handler
	closeDB   func() error
	cfg       config.CollectorConfig
}

func run(ctx context.Context, args []string, logger *zap.Logger) error {
	cfg, err := config.LoadCollectorConfig(args, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	a := newApp(ctx, cfg, logger)
	defer a.close()

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Address, err)
	}
	return a.serve(ctx, ln)
}

func newApp(ctx context.Context, cfg config.CollectorConfig, logger *zap.Logger) *app {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &app{cfg: cfg, logger: logger}
	a.repo, a.persister, a.closeDB = buildStorage(ctx, cfg, logger)

	ingested := observer.NewSubject[events.Ingested]()
	ingested.Attach("log", observer.Func[events.Ingested](func(_ context.Context, in events.Ingested) error {
		logger.Debug("batch ingested", zap.Int("accepted", in.Accepted), zap.Strings("markers", in.Markers))
		return nil
	}))
	if a.persister != nil && cfg.Interval == 0 {
		ingested.Attach("sync save", observer.Func[events.Ingested](func(ctx context.Context, _ events.Ingested) error {
			return a.save(ctx)
		}))
	}
	svc := events.New(a.repo, events.WithNotifier(ingested), events.WithLogger(logger))

	a.handler = ginserver.NewRouter(ginserver.NewHandler(svc),
		middlewares.RequestID(),
		middlewares.ZapLogger(logger),
		middlewares.BasicAuth(cfg.BasicAuth),
		middlewares.HashSHA256(cfg.Key),
	)
	return a
}

// serve runs the HTTP server and the periodic saver until ctx ends, then saves once more.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.logger.Info("collector started",
		zap.String("addr", ln.Addr().String()),
		zap.String("file", a.cfg.File),
		zap.Duration("interval", a.cfg.Interval),
		zap.Bool("restore", a.cfg.Restore),
		zap.Bool("db", a.cfg.DSN != ""),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if a.persister != nil && a.cfg.Interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(a.cfg.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					a.saveOrWarn(gctx)
				}
			}
		})
	}

	err := g.Wait()
	if a.persister != nil {
		a.saveOrWarn(context.WithoutCancel(ctx))
	}
	a.logger.Info("collector stopped")
	return err
}

func (a *app) save(ctx context.Context) error {
	evs, err := a.repo.List(ctx, domain.EventFilter{})
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	return a.persister.Save(ctx, evs)
}

func (a *app) saveOrWarn(ctx context.Context) {
	if err := a.save(ctx); err != nil {
		a.logger.Warn("save failed", zap.Error(err))
	}
}

func (a *app) close() {
	if err := a.closeDB(); err != nil {
		a.logger.Warn("close db failed", zap.Error(err))
	}
}
