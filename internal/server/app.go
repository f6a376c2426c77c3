// Package server wires the storefront components together and runs them:
// the HTTP API, the gRPC ops endpoint, the mail outbox workers and the
// revocation registry eviction loop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/httpserver"
	"github.com/dmitrijs2005/storefront/internal/server/mail"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/memory"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/dmitrijs2005/storefront/internal/server/storage"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/storefront/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	revoked *auth.RevocationRegistry
	outbox  *mail.Outbox
	http    *httpserver.Server
	ops     *gs.OpsServer
}

// seams for tests
var (
	openDB = repomanager.OpenDB

	newS3Store = func(ctx context.Context, c storage.S3Config) (storage.ImageStore, error) {
		return storage.NewS3Store(ctx, c)
	}
)

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if c.SecretKey == "secretKey" {
		logger.Warn(ctx, "using the default JWT secret; set JWT_SECRET_KEY")
	}

	db, rm, err := initRepositories(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	images, static, err := initImageStore(ctx, c)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("image storage init error: %w", err)
	}

	hasher := auth.NewPasswordHasher(c.BcryptCost)
	issuer := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	revoked := auth.NewRevocationRegistry()
	guard := auth.NewGuard(issuer, revoked)

	outbox := mail.NewOutbox(initMailer(c, logger), c.MailWorkers, c.MailQueueSize, logger)

	us := services.NewUserService(db, rm, hasher, issuer, revoked, logger)
	rs := services.NewResetService(db, rm, hasher, outbox, services.ResetOptions{
		PublicURL:          c.PublicURL,
		Validity:           c.ResetTokenValidityDuration,
		RevealUnknownEmail: c.RevealUnknownResetEmail,
	}, logger)
	ps := services.NewProductService(db, rm, images, logger)

	h := httpserver.NewHandler(us, rs, ps, guard, logger)

	var probe gs.Probe
	if db != nil {
		probe = db.PingContext
	}

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		revoked: revoked,
		outbox:  outbox,
		http:    httpserver.NewServer(c.HTTPAddr, h.Routes(static), logger),
		ops:     gs.NewOpsServer(c.OpsAddrGRPC, logger, probe),
	}, nil
}

func initRepositories(ctx context.Context, c *config.Config, logger logging.Logger) (*sql.DB, repomanager.RepositoryManager, error) {
	if c.UsesMemoryStore() {
		logger.Warn(ctx, "no database configured, data is kept in memory")
		return nil, memory.NewRepositoryManager(), nil
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("db migration error: %w", err)
	}
	return db, rm, nil
}

func initImageStore(ctx context.Context, c *config.Config) (storage.ImageStore, http.Handler, error) {
	switch c.ImageBackend {
	case config.ImageBackendLocal:
		s, err := storage.NewLocalStore(c.UploadDir, "/static")
		if err != nil {
			return nil, nil, err
		}
		return s, s.Handler(), nil
	case config.ImageBackendS3:
		s, err := newS3Store(ctx, storage.S3Config{
			User:         c.S3RootUser,
			Password:     c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		return s, nil, err
	default:
		return nil, nil, fmt.Errorf("unknown image backend %q", c.ImageBackend)
	}
}

func initMailer(c *config.Config, logger logging.Logger) mail.Mailer {
	if c.SMTPHost == "" {
		return mail.NewLogMailer(logger)
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
	})
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts every component and blocks until ctx is cancelled, a signal
// arrives or one of them fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.revoked.Run(gctx) })
	g.Go(func() error { return app.outbox.Run(gctx) })
	g.Go(func() error { return app.http.Run(gctx) })
	g.Go(func() error { return app.ops.Run(gctx) })

	err := g.Wait()
	closeDB(app.db)
	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return err
}
