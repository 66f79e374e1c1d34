package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/theleywin/talent-nest-network/src/connections"
	"github.com/theleywin/talent-nest-network/src/lib"
	"github.com/theleywin/talent-nest-network/src/logging"
	"github.com/theleywin/talent-nest-network/src/notifications"
	"github.com/theleywin/talent-nest-network/src/realtime"
	"github.com/theleywin/talent-nest-network/src/server"
	"github.com/theleywin/talent-nest-network/src/users"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API and the realtime listener",
		Long: `Run the REST API and the realtime WebSocket listener.

With nats.enabled, notifications are published through NATS and every
node forwards them to its own WebSocket clients.

Example:
  talentnest serve --config ./config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *lib.Config) error {
	db, err := lib.ConnectDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logging.Warn().Err(err).Msg("failed to close database")
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	hub := realtime.NewHub()
	var publisher notifications.Publisher = hub

	var bridge *realtime.NATSBridge
	if cfg.NATS.Enabled {
		conn, shutdownNATS, err := connectNATS(cfg.NATS)
		if err != nil {
			return err
		}
		defer shutdownNATS()
		publisher = realtime.NewNATSPublisher(conn, cfg.NATS.SubjectPrefix, hub)
		bridge = realtime.NewNATSBridge(conn, cfg.NATS.SubjectPrefix, hub)
	}

	tokens := lib.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	notes := notifications.NewService(db, db, publisher)

	app := server.NewApp(server.Deps{
		Store:         db,
		Verifier:      tokens,
		Connections:   connections.NewService(db, db, notes),
		Notifications: notes,
		Users:         users.NewService(db, cfg.API.MaxSearchResult),
		API:           cfg.API,
		AllowOrigins:  cfg.Server.AllowOrigins,
	})
	ws := realtime.NewServer(cfg.Server.RealtimeAddr, realtime.NewHandler(hub, tokens, db, cfg.Server.AllowOrigins))

	appLn, err := net.Listen("tcp", ":"+cfg.Server.Port)
	if err != nil {
		return fmt.Errorf("api listener: %w", err)
	}
	wsLn, err := net.Listen("tcp", cfg.Server.RealtimeAddr)
	if err != nil {
		_ = appLn.Close()
		return fmt.Errorf("realtime listener: %w", err)
	}
	logging.Info().Str("port", cfg.Server.Port).Str("realtime", cfg.Server.RealtimeAddr).Msg("Server is running")

	background := []func(context.Context) error{hub.Run}
	if bridge != nil {
		background = append(background, bridge.Run)
	}
	return runServers(ctx, app, appLn, ws, wsLn, background...)
}

// runServers serves both listeners and the background loops until ctx is
// cancelled or one of them fails. Listeners are bound by the caller, and
// closed here on shutdown even if a server never got to accept on them.
func runServers(ctx context.Context, app *fiber.App, appLn net.Listener, ws *http.Server, wsLn net.Listener, background ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, run := range background {
		run := run
		g.Go(func() error { return run(gctx) })
	}
	g.Go(func() error {
		if err := app.Listener(appLn); err != nil && gctx.Err() == nil {
			return fmt.Errorf("api listener: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := ws.Serve(wsLn)
		if err != nil && !errors.Is(err, http.ErrServerClosed) && gctx.Err() == nil {
			return fmt.Errorf("realtime listener: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := ws.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("realtime listener shutdown")
		}
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logging.Debug().Err(err).Msg("api shutdown")
		}
		_ = appLn.Close()
		_ = wsLn.Close()
		return nil
	})

	return g.Wait()
}

// connectNATS dials the configured broker, starting an embedded one first
// when asked to. The returned func closes both.
func connectNATS(cfg lib.NATSConfig) (*nats.Conn, func(), error) {
	url := cfg.URL
	var embedded *realtime.EmbeddedNATS
	if cfg.Embedded {
		var err error
		if embedded, err = realtime.StartEmbeddedNATS("127.0.0.1", cfg.EmbeddedPort); err != nil {
			return nil, nil, err
		}
		url = embedded.ClientURL()
	}

	conn, err := realtime.Connect(url, "talentnest")
	if err != nil {
		if embedded != nil {
			embedded.Shutdown()
		}
		return nil, nil, err
	}

	return conn, func() {
		conn.Close()
		if embedded != nil {
			embedded.Shutdown()
		}
	}, nil
}
