package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/tic-tac-two/game/engine"
	"github.com/wricardo/tic-tac-two/game/session"
	"github.com/wricardo/tic-tac-two/settings"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testSettings(t *testing.T) *settings.Settings {
	t.Helper()
	return &settings.Settings{
		Host:      "localhost",
		Port:      8080,
		ConfigDir: "configs",
		Storage: settings.Storage{
			Backend:         settings.StorageFile,
			SessionsDir:     t.TempDir(),
			SessionTTL:      time.Hour,
			CleanupInterval: time.Minute,
		},
	}
}

func newTestServices(t *testing.T) *services {
	t.Helper()
	svc, err := initializeServices(context.Background(), testSettings(t), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(svc.close)
	return svc
}

func TestConstants(t *testing.T) {
	assert.Equal(t, "1.0.0", Version)
	assert.Equal(t, "Tic-Tac-Two Server", AppName)
}

func TestAppCommands(t *testing.T) {
	app := newApp()

	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"serve", "stdio-mcp", "simulate", "validate"}, names)
	assert.NotNil(t, app.Action, "serve runs when no command is given")
	assert.Contains(t, app.Description, "PORT", "help lists the settings environment variables")
	assert.Contains(t, app.Description, "NGROK_AUTHTOKEN")
}

func TestFlagsOverrideSettings(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("CONFIG_DIR", "from-env")

	var got *settings.Settings
	app := newApp()
	app.Action = func(ctx context.Context, cmd *cli.Command) error {
		var err error
		got, err = loadSettings(cmd)
		return err
	}

	err := app.Run(context.Background(), []string{"tictactwo", "--port", "9191", "--debug"})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, 9191, got.Port, "flag wins over environment")
	assert.Equal(t, "from-env", got.ConfigDir, "unset flags keep the environment value")
	assert.Equal(t, "debug", got.LogLevel)
}

func TestLoadSettingsRejectsBadStorage(t *testing.T) {
	app := newApp()
	serve := app.Commands[0]
	serve.Action = func(ctx context.Context, cmd *cli.Command) error {
		_, err := loadSettings(cmd)
		return err
	}

	err := app.Run(context.Background(), []string{"tictactwo", "serve", "--storage", "mongo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo")
}

func TestInitializeServices(t *testing.T) {
	svc := newTestServices(t)
	assert.NotNil(t, svc.game)
	assert.NotNil(t, svc.sessions)
	assert.NotNil(t, svc.persistence)
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	s := testSettings(t)
	s.ConfigDir = "/non/existent/path"

	_, err := initializeServices(context.Background(), s, zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestInitializeServices_ReloadsSessions(t *testing.T) {
	s := testSettings(t)
	logger := zap.NewNop().Sugar()
	ctx := context.Background()

	first, err := initializeServices(ctx, s, logger)
	require.NoError(t, err)
	info, err := first.game.CreateSession(ctx, "")
	require.NoError(t, err)

	second, err := initializeServices(ctx, s, logger)
	require.NoError(t, err)
	restored, err := second.game.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.ID, restored.ID)
}

func TestRouterServesAPIAndMCP(t *testing.T) {
	svc := newTestServices(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	baseURL := "http://" + listener.Addr().String()

	srv := httptest.NewUnstartedServer(newRouter(svc.game, nil, baseURL, "", zap.NewNop().Sugar()))
	srv.Listener.Close()
	srv.Listener = listener
	srv.Start()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, externalAPIAvailable(srv.URL))

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"create_session","arguments":{}}}`
	resp, err = http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var rpc map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpc))
	assert.Contains(t, rpc, "result")

	sessions, err := svc.game.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, sessions, 1, "the MCP tool created a session through the API")
}

func TestExternalAPIUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	assert.False(t, externalAPIAvailable(srv.URL))
}

func TestRunMaintenance_ExpiresTurns(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	info, err := svc.game.CreateSession(ctx, "blitz")
	require.NoError(t, err)
	require.NotNil(t, info.TurnDeadline)

	runMaintenance(ctx, svc, nil, time.Now().Add(time.Hour), 0, zap.NewNop().Sugar())

	state, err := svc.game.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.PiecesPerPlayer-1, state.XPiecesRemaining, "the AI placed for X")
	assert.Equal(t, engine.PlayerO, state.CurrentPlayer)
}

func TestRunMaintenance_PrunesMissingSessions(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	kept, err := svc.game.CreateSession(ctx, "")
	require.NoError(t, err)
	gone, err := svc.game.CreateSession(ctx, "")
	require.NoError(t, err)

	require.NoError(t, svc.persistence.Delete(gone.ID))
	runMaintenance(ctx, svc, nil, time.Now(), 0, zap.NewNop().Sugar())

	_, err = svc.game.GetSession(ctx, kept.ID)
	assert.NoError(t, err)
	_, err = svc.game.GetSession(ctx, gone.ID)
	assert.Error(t, err)
}

// unavailableStorage answers every existence check with an error
type unavailableStorage struct {
	session.SessionPersistence
}

func (unavailableStorage) Exists(id string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestPruneMissingSessions_KeepsSessionsWhenStorageFails(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	first, err := svc.game.CreateSession(ctx, "")
	require.NoError(t, err)
	second, err := svc.game.CreateSession(ctx, "")
	require.NoError(t, err)

	failing := unavailableStorage{SessionPersistence: svc.persistence}
	pruned := pruneMissingSessions(svc.sessions, failing, nil, zap.NewNop().Sugar())

	assert.Equal(t, 0, pruned)
	assert.Equal(t, 2, svc.sessions.Count())
	for _, id := range []string{first.ID, second.ID} {
		_, err := svc.game.GetSession(ctx, id)
		assert.NoError(t, err)
	}
}

func TestRunMaintenance_CleansUpIdleSessions(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.game.CreateSession(ctx, "")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	runMaintenance(ctx, svc, nil, time.Now(), time.Millisecond, zap.NewNop().Sugar())
	assert.Equal(t, 0, svc.sessions.Count())
}

func TestRunNgrokTunnel_RequiresAuthToken(t *testing.T) {
	t.Setenv("NGROK_AUTH_TOKEN", "ignored")
	core, logs := observer.New(zap.WarnLevel)

	done := make(chan struct{})
	go func() {
		runNgrokTunnel(context.Background(), settings.Ngrok{Enabled: true}, http.NotFoundHandler(), zap.New(core).Sugar())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runNgrokTunnel should return without an auth token")
	}
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "no auth token")
}

func TestSimulateMatches(t *testing.T) {
	report, err := simulateMatches(20, 42, 100)
	require.NoError(t, err)

	assert.Equal(t, 20, report.Games)
	assert.Equal(t, 20, report.XWins+report.OWins+report.Ties+report.Unfinished+report.Stuck)
	assert.LessOrEqual(t, report.Longest, 100)
	assert.Greater(t, report.TotalTurns, 0)
	assert.Greater(t, report.AverageTurns(), 0.0)
}

func TestSimulateMatchesIsReproducible(t *testing.T) {
	first, err := simulateMatches(10, 7, 0)
	require.NoError(t, err)
	second, err := simulateMatches(10, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSimulateMatchesRejectsZeroGames(t *testing.T) {
	_, err := simulateMatches(0, 1, 10)
	assert.Error(t, err)
}

func TestSimulateCommand(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	err := app.Run(context.Background(), []string{"tictactwo", "simulate", "--games", "5", "--seed", "3"})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "=== Simulated 5 games ===")
	assert.Contains(t, out.String(), "X wins:")
	assert.Contains(t, out.String(), "Avg turns:")
}

func TestValidatePresets(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, validatePresets(&out, "configs"))
	assert.Contains(t, out.String(), "classic.json")
	assert.Contains(t, out.String(), "All 4 configurations are valid")
}

func TestValidatePresetsReportsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"name": ""}`), 0644))

	var out bytes.Buffer
	err := validatePresets(&out, dir)
	assert.ErrorIs(t, err, errInvalidPresets)
	assert.Contains(t, out.String(), "❌ INVALID")
}

func TestValidateCommand(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	err := app.Run(context.Background(), []string{"tictactwo", "--config-dir", "configs", "validate"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "VALID")
}
