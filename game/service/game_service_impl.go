package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/tic-tac-two/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrUnknownAction   = errors.New("unknown action")
	ErrInvalidAction   = errors.New("invalid action")
)

// MaxAIMovesPerAction bounds how many automatic AI replies one request may trigger
const MaxAIMovesPerAction = 8

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *zap.SugaredLogger
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, logger *zap.SugaredLogger) GameService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *MatchConfig
	configID := configName
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				return nil, s.configNotFoundError(configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.configs.DefaultID()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// The AI may own the opening move
	s.playAITurns(sess, &ActionResult{})
	s.persist(sess.ID, "create")

	s.logger.Infow("session created", "session", sess.ID, "config", configID)
	return sessionInfo(sess), nil
}

// configNotFoundError lists the available presets to help the caller recover
func (s *gameServiceImpl) configNotFoundError(configName string) error {
	availableConfigs, listErr := s.configs.ListConfigs()
	if listErr == nil && len(availableConfigs) > 0 {
		var configIDs []string
		for _, cfg := range availableConfigs {
			configIDs = append(configIDs, cfg.ConfigID)
		}
		return fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
	}
	return fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	// getSession touches LastAccessedAt
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.logger.Infow("session deleted", "session", sessionID)
	return nil
}

// Act applies one interaction for the side to move. Rule violations are
// reported in the result rather than as an error.
func (s *gameServiceImpl) Act(ctx context.Context, sessionID string, action Action) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &ActionResult{Events: []GameEvent{}}

	if action.Reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, GameEvent{
			Type:      EventReset,
			Message:   "Game reset to initial state",
			Timestamp: time.Now(),
		})
	}

	mover := sess.Engine.CurrentPlayer()
	movesBefore := sess.Engine.GetState().TotalMoves

	events, err := s.apply(sess, action)
	if err != nil {
		if !engine.IsRuleError(err) {
			return nil, err
		}
		s.logger.Debugw("action rejected", "session", sess.ID, "action", action.Type, "reason", engine.ReasonOf(err))
		state := sess.Engine.GetState()
		result.Success = false
		result.Reason = engine.ReasonOf(err)
		result.Message = err.Error()
		result.GameState = state
		if action.Reset {
			s.persist(sess.ID, "reset")
		}
		return result, nil
	}

	result.Success = true
	result.Events = append(result.Events, events...)

	if sess.Engine.GetState().TotalMoves > movesBefore {
		sess.RestartTurnClock()
		s.logger.Infow("move completed", "session", sess.ID, "player", mover, "action", action.Type, "outcome", sess.Engine.Outcome())
		result.Events = append(result.Events, gameOverEvents(sess)...)
		s.playAITurns(sess, result)
	}

	state := sess.Engine.GetState()
	result.GameState = state
	result.Message = state.Message

	s.persist(sess.ID, "action")
	return result, nil
}

// apply dispatches an action to the engine and describes what happened
func (s *gameServiceImpl) apply(sess *Session, action Action) ([]GameEvent, error) {
	eng := sess.Engine
	mover := eng.CurrentPlayer()
	target := engine.Position{X: action.X, Y: action.Y}
	now := time.Now()

	switch action.Type {
	case ActionPlace:
		if err := eng.PlacePiece(action.X, action.Y); err != nil {
			return nil, err
		}
		return []GameEvent{{
			Type:      EventPlaced,
			Message:   fmt.Sprintf("%s placed a piece at (%d,%d)", mover, action.X, action.Y),
			Timestamp: now,
			Player:    mover,
			Position:  &target,
		}}, nil

	case ActionToggleWindowMode:
		if err := eng.ToggleWindowRelocation(); err != nil {
			return nil, err
		}
		return []GameEvent{modeChangedEvent(eng, mover, now)}, nil

	case ActionTogglePieceMode:
		if err := eng.TogglePieceRelocation(); err != nil {
			return nil, err
		}
		return []GameEvent{modeChangedEvent(eng, mover, now)}, nil

	case ActionRelocateWindow:
		if err := eng.RelocateWindow(action.X, action.Y); err != nil {
			return nil, err
		}
		return []GameEvent{{
			Type:      EventWindowMoved,
			Message:   fmt.Sprintf("%s moved the window to (%d,%d)", mover, action.X, action.Y),
			Timestamp: now,
			Player:    mover,
			Position:  &target,
		}}, nil

	case ActionSelectPiece:
		if err := eng.SelectPiece(action.X, action.Y); err != nil {
			return nil, err
		}
		return []GameEvent{{
			Type:      EventPieceSelected,
			Message:   fmt.Sprintf("%s selected the piece at (%d,%d)", mover, action.X, action.Y),
			Timestamp: now,
			Player:    mover,
			Position:  &target,
		}}, nil

	case ActionRelocatePiece:
		from := action.From
		if from == nil {
			from = eng.SelectedOrigin()
		}
		if from == nil {
			return nil, engine.ErrOriginEmpty
		}
		if err := eng.RelocatePiece(from.X, from.Y, action.X, action.Y); err != nil {
			return nil, err
		}
		return []GameEvent{{
			Type:      EventPieceMoved,
			Message:   fmt.Sprintf("%s moved a piece from (%d,%d) to (%d,%d)", mover, from.X, from.Y, action.X, action.Y),
			Timestamp: now,
			Player:    mover,
			Position:  &target,
		}}, nil

	case ActionMove:
		if action.Move == nil {
			return nil, fmt.Errorf("%w: move action needs a move", ErrInvalidAction)
		}
		move := *action.Move
		switch move.Kind {
		case engine.MovePlace, engine.MoveRelocateWindow, engine.MoveRelocatePiece:
		default:
			return nil, fmt.Errorf("%w: unknown move kind %q", ErrInvalidAction, move.Kind)
		}
		if err := eng.Apply(move); err != nil {
			return nil, err
		}
		return []GameEvent{moveEvent(mover, move, now)}, nil

	case ActionAIMove:
		move, err := eng.PlayAIMove()
		if err != nil {
			return nil, err
		}
		return []GameEvent{aiMoveEvent(mover, move, now)}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}
}

// playAITurns lets the AI answer while it owns the side to move. Matches
// without a human player only advance through explicit ai_move actions.
func (s *gameServiceImpl) playAITurns(sess *Session, result *ActionResult) {
	if sess.Config == nil || !sess.Config.HasHuman() {
		return
	}

	for i := 0; i < MaxAIMovesPerAction; i++ {
		eng := sess.Engine
		mover := eng.CurrentPlayer()
		if eng.IsGameOver() || !sess.Config.IsAIPlayer(mover) {
			return
		}

		move, err := eng.PlayAIMove()
		if err != nil {
			s.logger.Warnw("ai move failed", "session", sess.ID, "player", mover, "error", err)
			return
		}
		sess.RestartTurnClock()

		result.AIMoves = append(result.AIMoves, move)
		result.Events = append(result.Events, aiMoveEvent(mover, move, time.Now()))
		result.Events = append(result.Events, gameOverEvents(sess)...)
		s.logger.Debugw("ai moved", "session", sess.ID, "player", mover, "kind", move.Kind, "to", move.To)
	}
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Engine.Reset()
	s.playAITurns(sess, &ActionResult{})
	s.persist(sess.ID, "reset")

	s.logger.Infow("session reset", "session", sess.ID, "match", sess.Engine.GetState().MatchID)
	return sess.Engine.GetState(), nil
}

// ExpireTurns plays an AI move for every side to move whose turn clock ran
// out before now, and returns the IDs of the sessions that changed.
func (s *gameServiceImpl) ExpireTurns(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for _, sess := range s.sessions.List() {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		if !sess.TurnExpired(now) || sess.Engine.IsGameOver() {
			continue
		}

		mover := sess.Engine.CurrentPlayer()
		if _, err := sess.Engine.PlayAIMove(); err != nil {
			s.logger.Warnw("turn timeout move failed", "session", sess.ID, "player", mover, "error", err)
			sess.TurnDeadline = time.Time{}
			continue
		}
		sess.RestartTurnClock()
		s.playAITurns(sess, &ActionResult{})
		s.persist(sess.ID, "timeout")

		s.logger.Infow("turn timed out", "session", sess.ID, "player", mover)
		expired = append(expired, sess.ID)
	}

	return expired, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	// getSession touches LastAccessedAt
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}

	return paginateHistory(sess.Engine.GetMoveHistory(), opts), nil
}

func paginateHistory(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// ListConfigs returns available match configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific match configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*MatchConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a match configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *MatchConfig) error {
	if err := s.configs.SaveConfig(configName, config); err != nil {
		return err
	}
	s.logger.Infow("config saved", "config", configName)
	return nil
}

// getSession looks up a session and marks it as accessed. Callers hold the
// write lock.
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}

	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.logger.Warnw("failed to update last access", "session", sessionID, "error", err)
	}
	return sess, nil
}

func (s *gameServiceImpl) persist(sessionID, reason string) {
	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.Warnw("failed to persist session", "session", sessionID, "after", reason, "error", err)
	}
}

func sessionInfo(sess *Session) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		MatchConfig:    sess.Config,
	}
	if !sess.TurnDeadline.IsZero() {
		deadline := sess.TurnDeadline
		info.TurnDeadline = &deadline
	}
	return info
}

func modeChangedEvent(eng *engine.GameEngine, mover engine.Player, now time.Time) GameEvent {
	return GameEvent{
		Type:      EventModeChanged,
		Message:   fmt.Sprintf("%s switched to %s mode", mover, eng.Mode()),
		Timestamp: now,
		Player:    mover,
	}
}

func moveEvent(mover engine.Player, move engine.Move, now time.Time) GameEvent {
	to := move.To
	ev := GameEvent{Timestamp: now, Player: mover, Position: &to}
	switch move.Kind {
	case engine.MovePlace:
		ev.Type = EventPlaced
		ev.Message = fmt.Sprintf("%s placed a piece at (%d,%d)", mover, to.X, to.Y)
	case engine.MoveRelocateWindow:
		ev.Type = EventWindowMoved
		ev.Message = fmt.Sprintf("%s moved the window to (%d,%d)", mover, to.X, to.Y)
	default:
		ev.Type = EventPieceMoved
		ev.Message = fmt.Sprintf("%s moved a piece from (%d,%d) to (%d,%d)", mover, move.From.X, move.From.Y, to.X, to.Y)
	}
	return ev
}

func aiMoveEvent(mover engine.Player, move engine.Move, now time.Time) GameEvent {
	to := move.To
	var message string
	switch move.Kind {
	case engine.MovePlace:
		message = fmt.Sprintf("AI (%s) placed a piece at (%d,%d)", mover, to.X, to.Y)
	case engine.MoveRelocateWindow:
		message = fmt.Sprintf("AI (%s) moved the window to (%d,%d)", mover, to.X, to.Y)
	default:
		message = fmt.Sprintf("AI (%s) moved a piece to (%d,%d)", mover, to.X, to.Y)
	}
	return GameEvent{
		Type:      EventAIMove,
		Message:   message,
		Timestamp: now,
		Player:    mover,
		Position:  &to,
	}
}

// gameOverEvents reports a decided game, if any
func gameOverEvents(sess *Session) []GameEvent {
	outcome := sess.Engine.Outcome()
	if !outcome.IsTerminal() {
		return nil
	}

	message := "It's a tie!"
	if winner := outcome.Winner(); winner != engine.NoPlayer {
		message = fmt.Sprintf("%s wins!", winner)
	}
	return []GameEvent{{
		Type:      EventGameOver,
		Message:   message,
		Timestamp: time.Now(),
		Player:    outcome.Winner(),
	}}
}
