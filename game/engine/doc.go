// Package engine provides the core rules for Tic-Tac-Two.
//
// The engine package implements the game mechanics including:
//   - A 5x5 board with a movable 3x3 active window
//   - Piece placement from per-player inventories
//   - Window and piece relocation modes
//   - Win and tie detection inside the active window
//   - A one-ply heuristic opponent
//
// Core Types:
//
// GameEngine owns the game state and is the only way to mutate it. GameState
// is a detached snapshot used for rendering and persistence. Every rejected
// action returns a *RuleError whose Reason names the violated rule; rejected
// actions never change the state.
//
// Usage:
//
//	eng := engine.NewEngine()
//
//	if err := eng.PlacePiece(1, 1); err != nil {
//		log.Printf("rejected: %s", engine.ReasonOf(err))
//	}
//
//	move, err := eng.PlayAIMove()
//	state := eng.GetState()
//
// Game Rules:
//
// Players X and O each hold five pieces and alternate turns, X first. Pieces
// may only be placed inside the active window. Once the mover has placed at
// least three pieces they may instead shift the window by one step in any
// direction, or move one of their pieces to an empty cell of the window. A
// line of three identical markers inside the window wins; if a single action
// completes lines for both players the game is a tie. The engine rejects
// further actions once the game is decided, until Reset is called.
package engine
