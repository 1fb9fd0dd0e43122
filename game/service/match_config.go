package service

import (
	"fmt"
	"slices"
	"time"

	"github.com/wricardo/tic-tac-two/game/engine"
)

// Match configuration limits
const (
	MaxAIDelayMS            = 10000
	MaxTurnTimeLimitSeconds = 3600
)

// MatchConfig is a named preset for a match: who the AI controls and how
// the match is paced.
type MatchConfig struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	AIPlayers   []engine.Player `json:"ai_players"`

	// AIDelayMS is a presentation hint for clients animating AI moves
	AIDelayMS int `json:"ai_delay_ms"`

	// TurnTimeLimitSeconds of zero disables the turn clock
	TurnTimeLimitSeconds int `json:"turn_time_limit_seconds"`
}

// IsAIPlayer reports whether the AI controls p in this preset
func (c *MatchConfig) IsAIPlayer(p engine.Player) bool {
	return slices.Contains(c.AIPlayers, p)
}

// HasHuman reports whether at least one side is played by a person
func (c *MatchConfig) HasHuman() bool {
	return !c.IsAIPlayer(engine.PlayerX) || !c.IsAIPlayer(engine.PlayerO)
}

// TurnTimeLimit returns the time allowed per turn, or zero when disabled
func (c *MatchConfig) TurnTimeLimit() time.Duration {
	return time.Duration(c.TurnTimeLimitSeconds) * time.Second
}

// ValidateMatchConfig checks a preset before it is used or saved
func ValidateMatchConfig(config *MatchConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config description is required")
	}

	seen := make(map[engine.Player]bool, len(config.AIPlayers))
	for _, p := range config.AIPlayers {
		if !p.Valid() {
			return fmt.Errorf("ai_players: invalid player %q", p)
		}
		if seen[p] {
			return fmt.Errorf("ai_players: %s listed twice", p)
		}
		seen[p] = true
	}

	if config.AIDelayMS < 0 || config.AIDelayMS > MaxAIDelayMS {
		return fmt.Errorf("ai_delay_ms must be between 0 and %d, got %d", MaxAIDelayMS, config.AIDelayMS)
	}
	if config.TurnTimeLimitSeconds < 0 || config.TurnTimeLimitSeconds > MaxTurnTimeLimitSeconds {
		return fmt.Errorf("turn_time_limit_seconds must be between 0 and %d, got %d", MaxTurnTimeLimitSeconds, config.TurnTimeLimitSeconds)
	}

	return nil
}
