package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crawdale/hotel/internal/auth"
	"github.com/crawdale/hotel/internal/config"
	"github.com/crawdale/hotel/internal/db/bunx"
	"github.com/crawdale/hotel/internal/guard"
	"github.com/crawdale/hotel/internal/migrations"
	"github.com/crawdale/hotel/internal/repository"
	"github.com/crawdale/hotel/internal/server"
	"github.com/crawdale/hotel/internal/services/identity"
	"github.com/crawdale/hotel/internal/services/mail"
	"github.com/crawdale/hotel/internal/services/rooms"
	"github.com/crawdale/hotel/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	cleanupInterval      = 15 * time.Minute
	loginCodeGracePeriod = time.Hour
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hotel web server",
	Long:  `Starts the HTTP server with the public pages, magic-link auth and the admin rooms console.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bunx.NewDBWithOptions(cfg.DatabaseURL, bunx.Options{MaxConns: cfg.MaxDBConnections})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		logger.Info("connected to database", zap.String("type", string(bunx.DetectDatabaseType(cfg.DatabaseURL))))

		if autoMigrate {
			group, err := migrations.Apply(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("auto-migrate: %w", err)
			}
			logger.Info("migrations applied", zap.Int64("group", group.ID))
		}

		// Repositories
		identityRepo := repository.NewBunIdentityRepository(db)
		profileRepo := repository.NewBunProfileRepository(db)
		sessionRepo := repository.NewBunSessionRepository(db)
		loginCodeRepo := repository.NewBunLoginCodeRepository(db)

		enforcer, err := auth.InitEnforcer(db)
		if err != nil {
			return fmt.Errorf("failed to initialize casbin enforcer: %w", err)
		}
		roomRepo := repository.NewPolicyRoomRepository(
			repository.NewBunRoomRepository(db), enforcer, logger.Named("rooms.policy"))

		// Telemetry
		provider, err := telemetry.Init(cfg.Metrics.Enabled, Version, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(ctx); err != nil {
				logger.Warn("telemetry shutdown", zap.Error(err))
			}
		}()

		serverMetrics, err := telemetry.NewServerMetrics(provider.Meter())
		if err != nil {
			return fmt.Errorf("failed to create server metrics: %w", err)
		}
		guardMetrics, err := telemetry.NewGuardMetrics(provider.Meter())
		if err != nil {
			return fmt.Errorf("failed to create guard metrics: %w", err)
		}
		authMetrics, err := telemetry.NewAuthMetrics(provider.Meter())
		if err != nil {
			return fmt.Errorf("failed to create auth metrics: %w", err)
		}

		// Services
		identitySvc := identity.NewService(identity.Options{
			Identities: identityRepo,
			Sessions:   sessionRepo,
			LoginCodes: loginCodeRepo,
			Codes:      identity.NewCodeIssuer(cfg.Auth.SigningKey, cfg.Auth.MagicLinkTTL),
			Mailer:     newMailer(cfg, logger),
			SessionTTL: cfg.Auth.SessionTTL,
			Logger:     logger.Named("identity"),
		})

		accessGuard := guard.New(guard.Options{
			Sessions:   guard.NewCookieSessionResolver(identitySvc, logger.Named("guard")),
			Roles:      guard.NewProfileRoleResolver(profileRepo, logger.Named("guard")),
			DeniedPath: deniedPath(cfg.Guard.DeniedRedirect),
			Recorder:   guardMetrics,
			Logger:     logger.Named("guard"),
		})

		roomSvc := rooms.NewService(roomRepo,
			rooms.NewFilterCache(cfg.Cache.FilterSize, cfg.Cache.FilterTTL),
			logger.Named("rooms"))

		routerOpts := server.RouterOptions{
			Guard:         accessGuard,
			Identity:      identitySvc,
			Rooms:         roomSvc,
			Cfg:           cfg,
			Logger:        logger.Named("http"),
			ServerMetrics: serverMetrics,
			AuthMetrics:   authMetrics,
		}
		if provider.Enabled() {
			routerOpts.MetricsHandler = provider.Handler()
		}

		handler, err := server.NewH2CHandler(routerOpts)
		if err != nil {
			return fmt.Errorf("failed to build router: %w", err)
		}

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		cleanupCtx, stopCleanup := context.WithCancel(context.Background())
		defer stopCleanup()
		go runCleanup(cleanupCtx, sessionRepo, loginCodeRepo, logger.Named("cleanup"))

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server",
				zap.String("addr", cfg.ServerAddr),
				zap.String("url", cfg.ServerURL),
				zap.String("version", Version))
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down gracefully", zap.String("signal", sig.String()))

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			logger.Info("server stopped")
			return nil
		}
	},
}

func newMailer(cfg *config.Config, logger *zap.Logger) mail.Sender {
	if cfg.Mail.Provider == config.MailProviderHTTP {
		return mail.NewHTTPSender(mail.HTTPSenderConfig{
			URL:    cfg.Mail.APIURL,
			APIKey: cfg.Mail.APIKey,
			From:   cfg.Mail.From,
		})
	}
	return mail.NewLogSender(logger.Named("mail"))
}

func deniedPath(mode string) string {
	if mode == config.DeniedRedirectLogin {
		return guard.LoginPath
	}
	return guard.ForbiddenPath
}

// runCleanup periodically purges expired sessions and consumed login codes.
func runCleanup(ctx context.Context, sessions repository.SessionRepository, codes repository.LoginCodeRepository, logger *zap.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				logger.Warn("delete expired sessions", zap.Error(err))
			} else if n > 0 {
				logger.Debug("deleted expired sessions", zap.Int64("count", n))
			}
			if err := codes.DeleteExpired(ctx, loginCodeGracePeriod); err != nil {
				logger.Warn("delete expired login codes", zap.Error(err))
			}
		}
	}
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}
