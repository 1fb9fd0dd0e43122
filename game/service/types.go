package service

import (
	"time"

	"github.com/wricardo/tic-tac-two/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	ConfigName     string            `json:"config_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	TurnDeadline   *time.Time        `json:"turn_deadline,omitempty"`
	GameState      *engine.GameState `json:"game_state"`
	MatchConfig    *MatchConfig      `json:"match_config"`
}

// ActionType names a player interaction
type ActionType string

const (
	ActionPlace            ActionType = "place"
	ActionToggleWindowMode ActionType = "toggle_window_mode"
	ActionRelocateWindow   ActionType = "relocate_window"
	ActionTogglePieceMode  ActionType = "toggle_piece_mode"
	ActionSelectPiece      ActionType = "select_piece"
	ActionRelocatePiece    ActionType = "relocate_piece"
	ActionAIMove           ActionType = "ai_move"

	// ActionMove performs a complete move in one step, entering the
	// relocation mode it needs
	ActionMove ActionType = "move"
)

// Action is a single interaction submitted for the side to move.
// X and Y are the target cell, or the new window corner for relocate_window.
type Action struct {
	Type  ActionType       `json:"type"`
	X     int              `json:"x"`
	Y     int              `json:"y"`
	From  *engine.Position `json:"from,omitempty"`
	Move  *engine.Move     `json:"move,omitempty"`
	Reset bool             `json:"reset,omitempty"`
}

// ActionResult contains the result of an action
type ActionResult struct {
	Success   bool              `json:"success"`
	Reason    engine.Reason     `json:"reason,omitempty"`
	Message   string            `json:"message"`
	GameState *engine.GameState `json:"game_state"`
	Events    []GameEvent       `json:"events"`
	AIMoves   []engine.Move     `json:"ai_moves,omitempty"`
}

// Event types emitted by actions
const (
	EventPlaced        = "placed"
	EventWindowMoved   = "window_moved"
	EventPieceSelected = "piece_selected"
	EventPieceMoved    = "piece_moved"
	EventModeChanged   = "mode_changed"
	EventAIMove        = "ai_move"
	EventGameOver      = "game_over"
	EventReset         = "reset"
	EventTurnTimeout   = "turn_timeout"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string           `json:"type"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Player    engine.Player    `json:"player,omitempty"`
	Position  *engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a match configuration
type ConfigInfo struct {
	Filename             string          `json:"filename"`
	ConfigID             string          `json:"config_id"` // The identifier to use for session creation
	Name                 string          `json:"name"`      // Display name
	Description          string          `json:"description"`
	AIPlayers            []engine.Player `json:"ai_players"`
	TurnTimeLimitSeconds int             `json:"turn_time_limit_seconds"`
}
