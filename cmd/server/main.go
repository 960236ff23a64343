package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	auth "github.com/hirewell/go-auth"
	"github.com/hirewell/go-auth/notify"
	"github.com/hirewell/go-auth/repository"
	"github.com/hirewell/go-auth/social"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	settings   *auth.Settings
	db         *bun.DB
	repo       repository.Manager
	tokens     auth.TokenService
	audit      *auth.AuditLogger
	dispatcher *notify.Dispatcher
	mailer     *notify.Mailer
	srv        router.Server[*fiber.App]
	logger     *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("app"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	settings, err := auth.LoadSettings()
	if err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(redacted(settings)))
	fmt.Println("============")

	ctx := context.Background()
	app := &App{
		settings: settings,
		logger:   lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithNotifications(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	app.srv.Serve(settings.HTTPAddr)

	sig := WaitExitSignal()
	app.GetLogger("app").Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.dispatcher.Stop(shutdownCtx); err != nil {
		app.GetLogger("notify").Warn("dispatcher did not drain", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.GetLogger("persistence").Error("close database", "error", err)
	}
}

// WithPersistence opens the database named by DATABASE_URL. postgres URLs
// use pgdriver, anything else is handed to sqlite.
func WithPersistence(ctx context.Context, app *App) error {
	dsn := app.settings.DatabaseURL

	var db *bun.DB
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return err
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if err := db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "database unreachable")
	}

	if err := repository.EnsureSchema(ctx, db); err != nil {
		return err
	}

	app.db = db
	app.repo = repository.NewRepositoryManager(db)
	if err := app.repo.Validate(); err != nil {
		return err
	}

	app.tokens = auth.NewTokenService(app.settings, app.GetLogger("tokens"))
	app.audit = auth.NewAuditLogger(
		app.repo.AuditEvents(),
		auth.WithAuditLogger(app.GetLogger("audit")),
	)

	return nil
}

// WithNotifications starts the mail dispatcher. A sender that can not be
// configured falls back to logging, so sign-in never depends on mail.
func WithNotifications(ctx context.Context, app *App) error {
	cfg := notify.ConfigFromSettings(app.settings.NotifyConfig())
	logger := app.GetLogger("notify")

	sender, err := notify.NewSender(ctx, cfg, logger)
	if err != nil {
		logger.Warn("mail sender unavailable, using log sender", "provider", cfg.Provider, "error", err)
		sender = notify.NewLogSender(logger)
	}

	app.dispatcher = notify.NewDispatcher(cfg, sender, notify.WithLogger(logger))
	app.dispatcher.Start(ctx)

	app.mailer = notify.NewMailer(
		notify.NewDjangoRenderer(cfg.TemplatesDir),
		app.dispatcher,
		cfg,
		notify.WithMailerLogger(logger),
	)

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	sso := app.settings.SSOConfig()
	logger := app.GetLogger("sso")

	provider, err := social.NewOIDCProvider(ctx, social.OIDCConfig{
		Name:         auth.ProviderSSO,
		IssuerURL:    sso.IssuerURL,
		ClientID:     sso.ClientID,
		ClientSecret: sso.ClientSecret,
		RedirectURL:  sso.RedirectURL,
		Scopes:       sso.Scopes,
	}, logger)
	if err != nil {
		return err
	}

	states := social.NewEncryptedStateManager(
		[]byte(sso.StateKey),
		[]byte(sso.StateHMACKey),
		social.DefaultStateTTL,
	)

	linker := social.NewLinker(
		app.repo.Users(),
		app.repo.IdentityLinks(),
		app.tokens,
		social.LinkerConfig{},
		social.WithLinkerLogger(logger),
		social.WithAuditLogger(app.audit),
	)

	authenticator := social.NewSSOAuthenticator(provider, linker,
		social.WithStateManager(states),
		social.WithLogger(logger),
	)

	controller := social.NewHTTPController(authenticator, app.repo.Users(), app.tokens, social.HTTPConfig{
		Logger: app.GetLogger("http"),
		Audit:  app.audit,
	})

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	controller.RegisterRoutes(srv.Router())

	registration := auth.NewRegisterUserHandler(app.repo, app.mailer, app.audit, app.GetLogger("register"))
	srv.Router().Post("/api/auth/register", RegisterUser(registration))

	app.srv = srv
	return nil
}

// RegisterUser creates a local account and queues its verification email.
func RegisterUser(handler *auth.RegisterUserHandler) router.HandlerFunc {
	return func(ctx router.Context) error {
		payload := auth.RegisterUserMessage{}
		if err := ctx.Bind(&payload); err != nil {
			return ctx.JSON(router.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}

		user, err := handler.Execute(ctx.Context(), payload)
		if err != nil {
			status := router.StatusInternalServerError
			message := "registration failed"
			var richErr *errors.Error
			if errors.As(err, &richErr) && richErr.Code >= 400 && richErr.Code < 500 {
				status = richErr.Code
				message = richErr.Message
			}
			return ctx.JSON(status, map[string]string{"error": message})
		}

		return ctx.JSON(http.StatusCreated, map[string]any{
			"user": user.Summary(),
		})
	}
}

// redacted returns a copy of the settings safe to print.
func redacted(s *auth.Settings) auth.Settings {
	out := *s
	for _, field := range []*string{
		&out.SigningKey,
		&out.SSOClientSecret,
		&out.SSOStateKey,
		&out.SSOStateHMACKey,
		&out.SendGridAPIKey,
		&out.SESSecretKey,
	} {
		if *field != "" {
			*field = "****"
		}
	}
	return out
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
