package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wricardo/tic-tac-two/game/engine"
	"github.com/wricardo/tic-tac-two/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage. An error means the
	// storage could not answer, not that the session is missing.
	Exists(id string) (bool, error)
}

// PersistedSessionData represents the JSON structure for persisted sessions
type PersistedSessionData struct {
	ID             string            `json:"id"`
	ConfigName     string            `json:"config_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	TurnDeadline   *time.Time        `json:"turn_deadline,omitempty"`
	GameState      *engine.GameState `json:"game_state"`
}

// encodeSession captures a session as a JSON document
func encodeSession(sess *service.Session) ([]byte, error) {
	if sess == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}

	data := PersistedSessionData{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
	}
	if !sess.TurnDeadline.IsZero() {
		deadline := sess.TurnDeadline
		data.TurnDeadline = &deadline
	}

	// Indent for readability when inspecting storage by hand
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}
	return jsonData, nil
}

// decodeSession rebuilds a live session from a stored document
func decodeSession(jsonData []byte, configs service.ConfigManager) (*service.Session, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if data.GameState == nil {
		return nil, fmt.Errorf("session %s has no game state", data.ID)
	}

	matchConfig, err := configs.LoadConfig(data.ConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
	}

	eng, err := engine.Restore(data.GameState)
	if err != nil {
		return nil, fmt.Errorf("failed to restore game state: %w", err)
	}

	sess := service.NewSession(data.ID, data.ConfigName, matchConfig, eng)
	sess.CreatedAt = data.CreatedAt
	sess.LastAccessedAt = data.LastAccessedAt
	sess.TurnDeadline = time.Time{}
	if data.TurnDeadline != nil {
		sess.TurnDeadline = *data.TurnDeadline
	}

	return sess, nil
}
