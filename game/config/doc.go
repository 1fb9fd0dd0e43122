// Package config provides match preset management for the Tic-Tac-Two server.
//
// The config package handles:
//   - Loading match presets from JSON files
//   - Preset validation
//   - Default preset management
//   - Preset discovery and listing
//
// Configuration Format:
//
// Presets are stored as JSON files in the configs directory. The file name
// without extension is the preset ID used when creating sessions. Each preset
// defines:
//   - Which players the AI controls (none, one side, or both)
//   - A delay hint for clients animating AI moves
//   - An optional per-turn time limit
//
// A built-in "classic" preset (two human players, no clock) is always
// available, even when the directory has no classic.json.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	preset, err := manager.LoadConfig("vs-ai")
//	presets, err := manager.ListConfigs()
package config
