package service

import (
	"context"
	"time"

	"github.com/wricardo/tic-tac-two/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Act(ctx context.Context, sessionID string, action Action) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)
	ExpireTurns(ctx context.Context, now time.Time) ([]string, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*MatchConfig, error)
	SaveConfig(ctx context.Context, configName string, config *MatchConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *MatchConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles match configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*MatchConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *MatchConfig
	DefaultID() string
	SaveConfig(name string, config *MatchConfig) error
}

// Session represents an active game session
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.GameEngine
	Config         *MatchConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time

	// TurnDeadline is zero when the preset has no turn time limit
	// or the game is decided.
	TurnDeadline time.Time
}

// NewSession wires an engine into a session and starts its turn clock.
// The clock restarts whenever the engine is reset.
func NewSession(id, configID string, config *MatchConfig, eng *engine.GameEngine) *Session {
	now := time.Now()
	sess := &Session{
		ID:             id,
		ConfigID:       configID,
		Engine:         eng,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	sess.RestartTurnClock()
	eng.OnReset(sess.RestartTurnClock)
	return sess
}

// RestartTurnClock gives the side to move a fresh time allowance
func (s *Session) RestartTurnClock() {
	if s.Config == nil || s.Config.TurnTimeLimitSeconds <= 0 || s.Engine.IsGameOver() {
		s.TurnDeadline = time.Time{}
		return
	}
	s.TurnDeadline = time.Now().Add(s.Config.TurnTimeLimit())
}

// TurnExpired reports whether the side to move ran out of time at now
func (s *Session) TurnExpired(now time.Time) bool {
	return !s.TurnDeadline.IsZero() && now.After(s.TurnDeadline)
}
