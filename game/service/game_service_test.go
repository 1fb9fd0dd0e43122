package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/tic-tac-two/game/engine"
	"github.com/wricardo/tic-tac-two/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	saves    int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id, configID string, config *service.MatchConfig) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	session := service.NewSession(id, configID, config, engine.NewEngine(engine.WithSeed(1)))
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Save(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	m.saves++
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*service.MatchConfig
}

func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		configs: map[string]*service.MatchConfig{
			"classic": {Name: "Classic", Description: "Two people, one board"},
			"vs-ai":   {Name: "Versus AI", Description: "AI plays O", AIPlayers: []engine.Player{engine.PlayerO}},
			"ai-first": {
				Name: "AI First", Description: "AI plays X", AIPlayers: []engine.Player{engine.PlayerX},
			},
			"ai-vs-ai": {
				Name: "AI vs AI", Description: "Spectate", AIPlayers: []engine.Player{engine.PlayerX, engine.PlayerO}, AIDelayMS: 500,
			},
			"blitz": {Name: "Blitz", Description: "Thirty seconds per turn", TurnTimeLimitSeconds: 30},
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*service.MatchConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			AIPlayers:   config.AIPlayers,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *service.MatchConfig {
	return m.configs["classic"]
}

func (m *MockConfigManager) DefaultID() string {
	return "classic"
}

func (m *MockConfigManager) SaveConfig(name string, config *service.MatchConfig) error {
	if err := service.ValidateMatchConfig(config); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidConfig, err)
	}
	m.configs[name] = config
	return nil
}

func newTestService(t *testing.T) (service.GameService, *MockSessionManager) {
	t.Helper()
	sessions := NewMockSessionManager()
	return service.NewGameService(sessions, NewMockConfigManager(), nil), sessions
}

func place(x, y int) service.Action {
	return service.Action{Type: service.ActionPlace, X: x, Y: y}
}

func eventTypes(events []service.GameEvent) []string {
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		configName string
		wantConfig string
		wantErr    error
	}{
		{"create with default config", "", "classic", nil},
		{"create with named config", "vs-ai", "vs-ai", nil},
		{"create with missing config", "nope", "", service.ErrConfigNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			info, err := svc.CreateSession(ctx, tt.configName)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "Available configs")
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, info.ID)
			assert.Equal(t, tt.wantConfig, info.ConfigName)
			require.NotNil(t, info.GameState)
			assert.Equal(t, engine.PlayerX, info.GameState.CurrentPlayer)
			assert.Nil(t, info.TurnDeadline)
		})
	}
}

func TestGameService_CreateSessionAIOpens(t *testing.T) {
	svc, _ := newTestService(t)

	info, err := svc.CreateSession(context.Background(), "ai-first")
	require.NoError(t, err)

	assert.Equal(t, engine.PlayerO, info.GameState.CurrentPlayer)
	assert.Equal(t, 4, info.GameState.XPiecesRemaining)
	assert.Len(t, info.GameState.MoveHistory, 1)
}

func TestGameService_ActPlace(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService(t)
	info, err := svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	result, err := svc.Act(ctx, info.ID, place(2, 2))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []string{service.EventPlaced}, eventTypes(result.Events))
	assert.Equal(t, engine.PlayerX, result.GameState.Board[2][2])
	assert.Equal(t, engine.PlayerO, result.GameState.CurrentPlayer)
	assert.Contains(t, result.Message, "X placed a piece at (2,2)")
	assert.Empty(t, result.AIMoves)
	assert.Positive(t, sessions.saves)
}

func TestGameService_ActRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	result, err := svc.Act(ctx, info.ID, place(0, 0))
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, engine.ReasonOutOfWindow, result.Reason)
	assert.Equal(t, engine.ErrOutOfWindow.Error(), result.Message)
	assert.Equal(t, engine.Board{}, result.GameState.Board)
	assert.Equal(t, engine.PlayerX, result.GameState.CurrentPlayer)
	assert.Empty(t, result.Events)

	result, err = svc.Act(ctx, info.ID, service.Action{Type: service.ActionToggleWindowMode})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, engine.ReasonTooFewPlaced, result.Reason)
}

func TestGameService_ActUnknown(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	_, err = svc.Act(ctx, info.ID, service.Action{Type: "jump"})
	assert.ErrorIs(t, err, service.ErrUnknownAction)

	_, err = svc.Act(ctx, "missing", place(1, 1))
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestGameService_ActAIReplies(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, "vs-ai")
	require.NoError(t, err)

	result, err := svc.Act(ctx, info.ID, place(1, 1))
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Len(t, result.AIMoves, 1)
	assert.Equal(t, engine.MovePlace, result.AIMoves[0].Kind)
	assert.Equal(t, []string{service.EventPlaced, service.EventAIMove}, eventTypes(result.Events))
	assert.Equal(t, engine.PlayerX, result.GameState.CurrentPlayer)
	assert.Equal(t, 4, result.GameState.OPiecesRemaining)
}

func TestGameService_ActAIBlocks(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, "vs-ai")
	require.NoError(t, err)

	first, err := svc.Act(ctx, info.ID, place(1, 1))
	require.NoError(t, err)
	require.True(t, first.Success)

	// Pick a second cell next to (1,1) that leaves a single open completion
	second := place(1, 2)
	if first.GameState.Board[1][2] != engine.NoPlayer || first.GameState.Board[1][3] != engine.NoPlayer {
		second = place(2, 1)
		if first.GameState.Board[2][1] != engine.NoPlayer || first.GameState.Board[3][1] != engine.NoPlayer {
			t.Skip("AI opening occupied both test lines")
		}
	}

	result, err := svc.Act(ctx, info.ID, second)
	require.NoError(t, err)
	require.Len(t, result.AIMoves, 1)

	if second.X == 1 {
		assert.Equal(t, engine.Position{X: 1, Y: 3}, result.AIMoves[0].To)
	} else {
		assert.Equal(t, engine.Position{X: 3, Y: 1}, result.AIMoves[0].To)
	}
}

func TestGameService_ActAIMoveWithoutHuman(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, "ai-vs-ai")
	require.NoError(t, err)
	assert.Empty(t, info.GameState.MoveHistory, "spectator matches only advance on request")

	result, err := svc.Act(ctx, info.ID, service.Action{Type: service.ActionAIMove})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []string{service.EventAIMove}, eventTypes(result.Events))
	assert.Empty(t, result.AIMoves, "no automatic replies without a human")
	assert.Len(t, result.GameState.MoveHistory, 1)
	assert.Equal(t, engine.PlayerO, result.GameState.CurrentPlayer)
}

func TestGameService_ActGameOver(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	for _, a := range []service.Action{place(1, 1), place(2, 1), place(1, 2), place(2, 2)} {
		result, err := svc.Act(ctx, info.ID, a)
		require.NoError(t, err)
		require.True(t, result.Success)
	}

	result, err := svc.Act(ctx, info.ID, place(1, 3))
	require.NoError(t, err)
	assert.Equal(t, []string{service.EventPlaced, service.EventGameOver}, eventTypes(result.Events))
	assert.Equal(t, engine.PlayerX, result.Events[1].Player)
	assert.Equal(t, engine.OutcomeXWins, result.GameState.Outcome)

	result, err = svc.Act(ctx, info.ID, place(2, 3))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, engine.ReasonGameOver, result.Reason)

	// Reset flag starts a new match before applying the action
	result, err = svc.Act(ctx, info.ID, service.Action{Type: service.ActionPlace, X: 2, Y: 3, Reset: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{service.EventReset, service.EventPlaced}, eventTypes(result.Events))
	assert.Equal(t, engine.OutcomeOngoing, result.GameState.Outcome)
}

func TestGameService_ActRelocation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	for _, a := range []service.Action{place(1, 1), place(2, 2), place(1, 2), place(1, 3), place(3, 1), place(3, 3)} {
		result, err := svc.Act(ctx, info.ID, a)
		require.NoError(t, err)
		require.True(t, result.Success)
	}

	result, err := svc.Act(ctx, info.ID, service.Action{Type: service.ActionTogglePieceMode})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, []string{service.EventModeChanged}, eventTypes(result.Events))
	assert.Equal(t, engine.ModeRelocatingPiece, result.GameState.Mode)

	result, err = svc.Act(ctx, info.ID, service.Action{Type: service.ActionSelectPiece, X: 3, Y: 1})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, []string{service.EventPieceSelected}, eventTypes(result.Events))

	// Destination only; the origin comes from the selection
	result, err = svc.Act(ctx, info.ID, service.Action{Type: service.ActionRelocatePiece, X: 2, Y: 1})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, []string{service.EventPieceMoved}, eventTypes(result.Events))
	assert.Equal(t, engine.PlayerX, result.GameState.Board[2][1])
	assert.Equal(t, engine.PlayerO, result.GameState.CurrentPlayer)

	result, err = svc.Act(ctx, info.ID, service.Action{Type: service.ActionToggleWindowMode})
	require.NoError(t, err)
	require.True(t, result.Success)

	result, err = svc.Act(ctx, info.ID, service.Action{Type: service.ActionRelocateWindow, X: 0, Y: 1})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, []string{service.EventWindowMoved}, eventTypes(result.Events))
	assert.Equal(t, engine.Position{X: 0, Y: 1}, result.GameState.Window)
}

func TestGameService_RelocateWithoutOrigin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	result, err := svc.Act(ctx, info.ID, service.Action{Type: service.ActionRelocatePiece, X: 2, Y: 2})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, engine.ReasonOriginEmpty, result.Reason)
}

func TestGameService_Reset(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	_, err = svc.Act(ctx, info.ID, place(1, 1))
	require.NoError(t, err)

	state, err := svc.Reset(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.Board{}, state.Board)
	assert.Equal(t, engine.PlayerX, state.CurrentPlayer)
	assert.NotEqual(t, info.GameState.MatchID, state.MatchID)
	assert.Len(t, state.MoveHistory, 1)

	_, err = svc.Reset(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestGameService_TurnDeadline(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, "blitz")
	require.NoError(t, err)

	require.NotNil(t, info.TurnDeadline)
	assert.WithinDuration(t, time.Now().Add(30*time.Second), *info.TurnDeadline, 5*time.Second)

	expired, err := svc.ExpireTurns(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, expired)

	expired, err = svc.ExpireTurns(ctx, time.Now().Add(31*time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{info.ID}, expired)

	current, err := svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.PlayerO, current.GameState.CurrentPlayer)
	assert.Len(t, current.GameState.MoveHistory, 1)
	require.NotNil(t, current.TurnDeadline)
	assert.True(t, current.TurnDeadline.After(*info.TurnDeadline) || current.TurnDeadline.Equal(*info.TurnDeadline))
}

func TestGameService_TurnDeadlineRestartsOnReset(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService(t)
	info, err := svc.CreateSession(ctx, "blitz")
	require.NoError(t, err)

	sess := sessions.sessions[info.ID]
	sess.TurnDeadline = time.Now().Add(-time.Minute)

	_, err = svc.Reset(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, sess.TurnDeadline.After(time.Now()))
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	for _, a := range []service.Action{place(1, 1), place(2, 2), place(3, 3), place(1, 2), place(3, 1)} {
		result, err := svc.Act(ctx, info.ID, a)
		require.NoError(t, err)
		require.True(t, result.Success)
	}

	tests := []struct {
		name        string
		opts        service.HistoryOptions
		wantNumbers []int
		wantPages   int
		hasNext     bool
		hasPrevious bool
	}{
		{"defaults newest first", service.HistoryOptions{}, []int{5, 4, 3, 2, 1}, 1, false, false},
		{"first page desc", service.HistoryOptions{Page: 1, Limit: 2, Order: "desc"}, []int{5, 4}, 3, true, false},
		{"last page desc", service.HistoryOptions{Page: 3, Limit: 2, Order: "desc"}, []int{1}, 3, false, true},
		{"second page asc", service.HistoryOptions{Page: 2, Limit: 2, Order: "asc"}, []int{3, 4}, 3, true, true},
		{"past the end", service.HistoryOptions{Page: 9, Limit: 2, Order: "asc"}, []int{}, 3, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, err := svc.GetMoveHistory(ctx, info.ID, tt.opts)
			require.NoError(t, err)

			numbers := []int{}
			for _, m := range history.Moves {
				numbers = append(numbers, m.MoveNumber)
			}
			assert.Equal(t, tt.wantNumbers, numbers)
			assert.Equal(t, 5, history.TotalMoves)
			assert.Equal(t, tt.wantPages, history.TotalPages)
			assert.Equal(t, tt.hasNext, history.HasNext)
			assert.Equal(t, tt.hasPrevious, history.HasPrevious)
		})
	}
}

func TestGameService_ListAndDeleteSessions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateSession(ctx, "")
		require.NoError(t, err)
	}

	sessions, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)

	require.NoError(t, svc.DeleteSession(ctx, sessions[0].ID))
	assert.ErrorIs(t, svc.DeleteSession(ctx, sessions[0].ID), service.ErrSessionNotFound)

	_, err = svc.GetSession(ctx, sessions[0].ID)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	remaining, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	configs, err := svc.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, configs, 5)

	cfg, err := svc.LoadConfig(ctx, "vs-ai")
	require.NoError(t, err)
	assert.True(t, cfg.IsAIPlayer(engine.PlayerO))

	err = svc.SaveConfig(ctx, "bad", &service.MatchConfig{Name: "Bad"})
	assert.ErrorIs(t, err, service.ErrInvalidConfig)

	require.NoError(t, svc.SaveConfig(ctx, "custom", &service.MatchConfig{Name: "Custom", Description: "Saved in test"}))
	info, err := svc.CreateSession(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", info.ConfigName)
}

func TestGameService_ActCompleteMove(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	for _, a := range []service.Action{place(1, 1), place(2, 2), place(1, 2), place(1, 3), place(3, 1), place(3, 3)} {
		result, err := svc.Act(ctx, info.ID, a)
		require.NoError(t, err)
		require.True(t, result.Success)
	}

	// One request enters the mode and relocates
	from := engine.Position{X: 3, Y: 1}
	result, err := svc.Act(ctx, info.ID, service.Action{
		Type: service.ActionMove,
		Move: &engine.Move{Kind: engine.MoveRelocatePiece, From: &from, To: engine.Position{X: 2, Y: 1}},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, []string{service.EventPieceMoved}, eventTypes(result.Events))
	assert.Equal(t, engine.PlayerX, result.GameState.Board[2][1])
	assert.Equal(t, engine.ModeNormal, result.GameState.Mode)

	// A refused move leaves the mode untouched
	result, err = svc.Act(ctx, info.ID, service.Action{
		Type: service.ActionMove,
		Move: &engine.Move{Kind: engine.MoveRelocateWindow, To: engine.Position{X: 1, Y: 1}},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, engine.ReasonSamePosition, result.Reason)
	assert.Equal(t, engine.ModeNormal, result.GameState.Mode)

	_, err = svc.Act(ctx, info.ID, service.Action{Type: service.ActionMove})
	assert.ErrorIs(t, err, service.ErrInvalidAction)

	_, err = svc.Act(ctx, info.ID, service.Action{Type: service.ActionMove, Move: &engine.Move{Kind: "teleport"}})
	assert.ErrorIs(t, err, service.ErrInvalidAction)
}
