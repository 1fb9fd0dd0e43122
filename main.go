// Command tictactwo starts the Tic-Tac-Two game server.
//
// It supports four commands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "simulate" plays AI-vs-AI matches on the engine and prints the outcomes
//  4. "validate" checks every match preset in the config directory
//
// Settings come from the environment (a .env file is loaded first) or a YAML
// file given with --settings. Flags override both.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/tic-tac-two/api"
	"github.com/wricardo/tic-tac-two/game/config"
	"github.com/wricardo/tic-tac-two/game/service"
	"github.com/wricardo/tic-tac-two/game/session"
	"github.com/wricardo/tic-tac-two/settings"
	"github.com/wricardo/tic-tac-two/transport/mcp"
	"github.com/wricardo/tic-tac-two/transport/websocket"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Tic-Tac-Two Server"
)

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	app := newApp()
	if envErr != nil && !os.IsNotExist(envErr) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", envErr)
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func settingsHelp() string {
	return "Settings are read from the environment or a YAML file (--settings):\n\n" + settings.Usage()
}

// newApp builds the command tree. serve is the default action.
func newApp() *cli.Command {
	return &cli.Command{
		Name:        "tictactwo",
		Usage:       AppName,
		Version:     Version,
		Description: settingsHelp(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "settings", Usage: "YAML settings file (environment only when empty)"},
			&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
			&cli.StringFlag{Name: "config-dir", Usage: "Directory containing match presets"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "static-dir", Usage: "Directory with a web client to serve at /"},
					&cli.StringFlag{Name: "storage", Usage: "Session storage backend (file|redis)"},
					&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel"},
					&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (or NGROK_AUTHTOKEN)"},
					&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain"},
				},
				Action: serveAction,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  stdioMCPAction,
			},
			{
				Name:  "simulate",
				Usage: "Play AI-vs-AI matches and report the outcomes",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "games", Value: 100, Usage: "Number of matches"},
					&cli.Int64Flag{Name: "seed", Value: 1, Usage: "Seed of the first match"},
					&cli.IntFlag{Name: "max-turns", Value: DefaultMaxTurns, Usage: "Turn limit per match"},
				},
				Action: simulateAction,
			},
			{
				Name:   "validate",
				Usage:  "Validate the match presets in the config directory",
				Action: validateAction,
			},
		},
	}
}

// loadSettings reads settings and applies the flags that were set.
func loadSettings(cmd *cli.Command) (*settings.Settings, error) {
	s, err := settings.Load(cmd.String("settings"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("host") {
		s.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		s.Port = cmd.Int("port")
	}
	if cmd.IsSet("config-dir") {
		s.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("debug") && cmd.Bool("debug") {
		s.LogLevel = "debug"
	}
	if cmd.IsSet("static-dir") {
		s.StaticDir = cmd.String("static-dir")
	}
	if cmd.IsSet("storage") {
		s.Storage.Backend = cmd.String("storage")
	}
	if cmd.IsSet("ngrok") {
		s.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		s.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		s.Ngrok.Domain = cmd.String("ngrok-domain")
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// newLogger logs to stderr so stdio-mcp keeps stdout for the protocol.
func newLogger(level string) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger.Sugar(), nil
}

// services bundles what the commands need after startup.
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
	close       func()
}

// initializeServices wires the config and session managers, the selected
// persistence backend, and the game service.
func initializeServices(ctx context.Context, s *settings.Settings, logger *zap.SugaredLogger) (*services, error) {
	configManager, err := config.NewManager(s.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	closeFn := func() {}
	var persistence session.SessionPersistence
	switch s.Storage.Backend {
	case settings.StorageRedis:
		client, err := session.NewRedisClient(ctx, s.Redis.Addr, s.Redis.Password, s.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		persistence = session.NewRedisPersistence(client, s.Redis.KeyPrefix, s.Storage.SessionTTL, configManager)
		closeFn = func() {
			if err := client.Close(); err != nil {
				logger.Warnw("failed to close redis client", "error", err)
			}
		}
	default:
		fp, err := session.NewFilePersistence(s.Storage.SessionsDir, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		persistence = fp
	}

	sessionManager := session.NewManagerWithPersistence(persistence, logger)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logger.Warnw("failed to load persisted sessions", "error", err)
	}

	logger.Infow("services initialized",
		"storage", s.Storage.Backend,
		"sessions", sessionManager.Count(),
		"config_dir", s.ConfigDir)

	return &services{
		game:        service.NewGameService(sessionManager, configManager, logger),
		sessions:    sessionManager,
		persistence: persistence,
		close:       closeFn,
	}, nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(s.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := initializeServices(ctx, s, logger)
	if err != nil {
		return err
	}
	defer svc.close()

	return runHTTPServer(ctx, s, svc, logger)
}

// newRouter mounts the API server at the root and the MCP proxy at /mcp.
func newRouter(gameService service.GameService, hub *websocket.Hub, baseURL, staticDir string, logger *zap.SugaredLogger) http.Handler {
	var opts []api.Option
	if staticDir != "" {
		opts = append(opts, api.WithStaticDir(staticDir))
	}
	apiServer := api.NewServer(gameService, hub, logger, opts...)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.Handle("/mcp", mcp.NewClient(baseURL).HTTPHandler())
	return mainRouter
}

// runHTTPServer serves until ctx is cancelled. If ngrok is enabled it also
// provisions a public tunnel.
func runHTTPServer(ctx context.Context, s *settings.Settings, svc *services, logger *zap.SugaredLogger) error {
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	addr := s.Addr()
	handler := newRouter(svc.game, hub, s.BaseURL(), s.StaticDir, logger)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Infow("HTTP server listening",
			"addr", addr,
			"api", s.BaseURL()+"/api",
			"websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp", s.BaseURL()+"/mcp")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		maintenanceRoutine(ctx, svc, hub, s.Storage.CleanupInterval, s.Storage.SessionTTL, logger)
	}()

	if s.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, s.Ngrok, handler, logger)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Infow("shutting down")
	case runErr = <-serverErr:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("HTTP server shutdown error", "error", err)
	}

	if runErr != nil {
		return runErr
	}

	wg.Wait()
	if err := svc.sessions.SaveAllSessions(); err != nil {
		logger.Warnw("failed to save sessions on shutdown", "error", err)
	}
	logger.Infow("server stopped")
	return nil
}

func runNgrokTunnel(ctx context.Context, opts settings.Ngrok, handler http.Handler, logger *zap.SugaredLogger) {
	authToken := opts.AuthToken
	if authToken == "" {
		logger.Warnw("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if opts.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.Domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Errorw("failed to start ngrok tunnel", "error", err)
		return
	}

	ngrokURL := tun.URL()
	logger.Infow("ngrok tunnel established",
		"url", ngrokURL,
		"api", ngrokURL+"/api",
		"mcp", ngrokURL+"/mcp")

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warnw("failed to close ngrok tunnel", "error", err)
		}
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Warnw("ngrok server error", "error", err)
	}
	logger.Infow("ngrok tunnel closed")
}

// maintenanceRoutine runs one maintenance pass per tick until ctx is done.
func maintenanceRoutine(ctx context.Context, svc *services, hub *websocket.Hub, interval, maxAge time.Duration, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			runMaintenance(ctx, svc, hub, now, maxAge, logger)
		}
	}
}

// runMaintenance plays timed-out turns and pushes the new states to
// subscribers, prunes sessions whose stored copy disappeared, and drops
// sessions idle for longer than maxAge.
func runMaintenance(ctx context.Context, svc *services, hub *websocket.Hub, now time.Time, maxAge time.Duration, logger *zap.SugaredLogger) {
	expired, err := svc.game.ExpireTurns(ctx, now)
	if err != nil {
		logger.Warnw("turn expiry interrupted", "error", err)
	}
	for _, id := range expired {
		state, err := svc.game.GetGameState(ctx, id)
		if err != nil {
			continue
		}
		if hub != nil {
			hub.BroadcastToSession(id, state)
		}
	}

	if svc.persistence != nil {
		if pruned := pruneMissingSessions(svc.sessions, svc.persistence, hub, logger); pruned > 0 {
			logger.Infow("pruned sessions missing from storage", "count", pruned)
		}
	}

	if maxAge > 0 {
		if removed := svc.sessions.CleanupExpiredSessions(maxAge); removed > 0 {
			logger.Infow("cleaned up expired sessions", "count", removed)
		}
	}
}

// pruneMissingSessions drops in-memory sessions whose stored copy is gone.
// The pass stops at the first storage error so an outage never reads as
// every session being deleted.
func pruneMissingSessions(sessions *session.Manager, persistence session.SessionPersistence, hub *websocket.Hub, logger *zap.SugaredLogger) int {
	pruned := 0
	for _, sess := range sessions.List() {
		stored, err := persistence.Exists(sess.ID)
		if err != nil {
			logger.Warnw("session storage unavailable, skipping prune", "session", sess.ID, "error", err)
			return pruned
		}
		if stored {
			continue
		}
		if err := sessions.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			if hub != nil {
				hub.BroadcastEvent(sess.ID, websocket.EventSessionGone, nil)
			}
		}
	}
	return pruned
}

// stdioMCPAction runs an MCP stdio server. It reuses an API server already
// listening on the configured address; otherwise it starts an internal one
// on a random loopback port and targets that.
func stdioMCPAction(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(s.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseURL := s.BaseURL()
	if externalAPIAvailable(baseURL) {
		logger.Infow("using external API server for MCP", "url", baseURL)
	} else {
		svc, err := initializeServices(ctx, s, logger)
		if err != nil {
			return err
		}
		defer svc.close()

		internalURL, shutdown, err := startInternalServer(ctx, svc, logger)
		if err != nil {
			return err
		}
		defer shutdown()
		baseURL = internalURL
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Infow("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// externalAPIAvailable reports whether a healthy API answers at baseURL.
func externalAPIAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalServer serves the API on a random loopback port and returns
// its base URL and a shutdown func.
func startInternalServer(ctx context.Context, svc *services, logger *zap.SugaredLogger) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}
	baseURL := fmt.Sprintf("http://%s", listener.Addr().String())

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	httpServer := &http.Server{
		Handler: newRouter(svc.game, hub, baseURL, "", logger),
	}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("internal HTTP server error", "error", err)
		}
	}()
	logger.Infow("internal HTTP server started", "url", baseURL)

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("internal HTTP server shutdown error", "error", err)
		}
	}
	return baseURL, shutdown, nil
}

func simulateAction(ctx context.Context, cmd *cli.Command) error {
	report, err := simulateMatches(cmd.Int("games"), uint64(cmd.Int64("seed")), cmd.Int("max-turns"))
	if err != nil {
		return err
	}
	report.Print(cmd.Root().Writer)
	return nil
}
