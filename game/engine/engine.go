package engine

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	OnReset(fn func())
	IsGameOver() bool
	Outcome() Outcome

	// Read-only views
	Board() Board
	Window() Position
	CurrentPlayer() Player
	PiecesRemaining(p Player) int
	Mode() Mode
	SelectedOrigin() *Position

	// Actions
	PlacePiece(x, y int) error
	ToggleWindowRelocation() error
	RelocateWindow(x, y int) error
	TogglePieceRelocation() error
	SelectPiece(x, y int) error
	RelocatePiece(fromX, fromY, toX, toY int) error
	Apply(move Move) error

	// Automated opponent
	ChooseAIMove() (Move, error)
	PlayAIMove() (Move, error)

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface. It is not safe for concurrent use.
type GameEngine struct {
	state   *GameState
	rng     *rand.Rand
	onReset []func()
}

// Option configures a GameEngine
type Option func(*GameEngine)

// WithRand sets the random source used by the AI fallback moves
func WithRand(rng *rand.Rand) Option {
	return func(e *GameEngine) {
		e.rng = rng
	}
}

// WithSeed makes the AI fallback moves reproducible
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// NewEngine creates a new game engine in the start position
func NewEngine(opts ...Option) *GameEngine {
	e := &GameEngine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	e.state = newGameState()
	return e
}

// Restore creates an engine from a previously captured snapshot
func Restore(state *GameState, opts ...Option) (*GameEngine, error) {
	e := NewEngine(opts...)
	if err := e.SetState(state); err != nil {
		return nil, err
	}
	return e, nil
}

func newGameState() *GameState {
	return &GameState{
		Window:            Position{X: DefaultWindowX, Y: DefaultWindowY},
		CurrentPlayer:     PlayerX,
		XPiecesRemaining:  PiecesPerPlayer,
		OPiecesRemaining:  PiecesPerPlayer,
		Mode:              ModeNormal,
		Outcome:           OutcomeOngoing,
		Message:           "X to move",
		MatchID:           uuid.NewString(),
		MoveHistory:       []MoveHistoryEntry{},
		TotalMoves:        0,
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}
}

// GetState returns a detached snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state.Clone()
}

// SetState replaces the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if err := ValidateState(state); err != nil {
		return err
	}

	restored := state.Clone()
	if restored.MatchID == "" {
		restored.MatchID = uuid.NewString()
	}
	if restored.MoveHistory == nil {
		restored.MoveHistory = []MoveHistoryEntry{}
	}
	if restored.CurrentMoves == nil {
		restored.CurrentMoves = []MoveHistoryEntry{}
	}
	restored.Outcome = evaluateOutcome(&restored.Board, restored.Window)

	e.state = restored
	return nil
}

// Reset restores the start position and notifies reset listeners
func (e *GameEngine) Reset() *GameState {
	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.state = newGameState()
	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal

	for _, fn := range e.onReset {
		fn()
	}

	return e.GetState()
}

// OnReset registers fn to run after every Reset
func (e *GameEngine) OnReset(fn func()) {
	if fn != nil {
		e.onReset = append(e.onReset, fn)
	}
}

// Outcome evaluates the active window for a decided game
func (e *GameEngine) Outcome() Outcome {
	return evaluateOutcome(&e.state.Board, e.state.Window)
}

// IsGameOver returns whether the game has been decided
func (e *GameEngine) IsGameOver() bool {
	return e.Outcome().IsTerminal()
}

// Board returns a copy of the board
func (e *GameEngine) Board() Board {
	return e.state.Board
}

// Window returns the top-left corner of the active window
func (e *GameEngine) Window() Position {
	return e.state.Window
}

// CurrentPlayer returns the side to move
func (e *GameEngine) CurrentPlayer() Player {
	return e.state.CurrentPlayer
}

// PiecesRemaining returns how many pieces p can still place
func (e *GameEngine) PiecesRemaining(p Player) int {
	return e.state.PiecesRemaining(p)
}

// Mode returns the mover's interaction mode
func (e *GameEngine) Mode() Mode {
	return e.state.Mode
}

// SelectedOrigin returns the piece picked up for relocation, if any
func (e *GameEngine) SelectedOrigin() *Position {
	if e.state.SelectedOrigin == nil {
		return nil
	}
	origin := *e.state.SelectedOrigin
	return &origin
}

// PlacePiece places a piece of the mover at (x, y)
func (e *GameEngine) PlacePiece(x, y int) error {
	pos := Position{X: x, Y: y}
	if err := e.checkPlacement(pos); err != nil {
		return err
	}

	mover := e.state.CurrentPlayer
	e.state.Board[x][y] = mover
	if mover == PlayerX {
		e.state.XPiecesRemaining--
	} else {
		e.state.OPiecesRemaining--
	}

	e.completeMove(Move{Kind: MovePlace, To: pos}, fmt.Sprintf("%s placed a piece at (%d,%d)", mover, x, y))
	return nil
}

func (e *GameEngine) checkPlacement(pos Position) error {
	if e.IsGameOver() {
		return ErrGameOver
	}
	if e.state.Mode != ModeNormal {
		return ErrWrongMode
	}
	if e.PiecesRemaining(e.state.CurrentPlayer) <= 0 {
		return ErrNoPiecesLeft
	}
	if !e.state.InWindow(pos) {
		return ErrOutOfWindow
	}
	if e.state.Board.At(pos) != NoPlayer {
		return ErrCellOccupied
	}
	return nil
}

// ToggleWindowRelocation switches window relocation mode on or off
func (e *GameEngine) ToggleWindowRelocation() error {
	return e.toggleMode(ModeRelocatingWindow, "Choose a new top-left corner for the window")
}

// TogglePieceRelocation switches piece relocation mode on or off
func (e *GameEngine) TogglePieceRelocation() error {
	return e.toggleMode(ModeRelocatingPiece, "Select a piece to move")
}

func (e *GameEngine) toggleMode(target Mode, prompt string) error {
	if err := e.checkRelocationUnlocked(); err != nil {
		return err
	}

	if e.state.Mode == target {
		e.state.Mode = ModeNormal
		e.state.Message = fmt.Sprintf("%s to move", e.state.CurrentPlayer)
	} else {
		e.state.Mode = target
		e.state.Message = prompt
	}
	e.state.SelectedOrigin = nil
	return nil
}

func (e *GameEngine) checkRelocationUnlocked() error {
	if e.IsGameOver() {
		return ErrGameOver
	}
	if e.PiecesRemaining(e.state.CurrentPlayer) > RelocationThreshold {
		return ErrTooFewPlaced
	}
	return nil
}

// RelocateWindow moves the active window's top-left corner to (x, y)
func (e *GameEngine) RelocateWindow(x, y int) error {
	if e.IsGameOver() {
		return ErrGameOver
	}
	if e.state.Mode != ModeRelocatingWindow {
		return ErrWrongMode
	}

	target := Position{X: x, Y: y}
	if err := checkWindowMove(e.state.Window, target); err != nil {
		return err
	}

	mover := e.state.CurrentPlayer
	from := e.state.Window
	e.state.Window = target

	e.completeMove(Move{Kind: MoveRelocateWindow, From: &from, To: target},
		fmt.Sprintf("%s moved the window to (%d,%d)", mover, x, y))
	return nil
}

// SelectPiece picks up one of the mover's pieces for relocation
func (e *GameEngine) SelectPiece(x, y int) error {
	if e.IsGameOver() {
		return ErrGameOver
	}
	if e.state.Mode != ModeRelocatingPiece || e.state.SelectedOrigin != nil {
		return ErrWrongMode
	}

	pos := Position{X: x, Y: y}
	if !e.state.InWindow(pos) {
		return ErrOutOfWindow
	}
	if e.state.Board.At(pos) != e.state.CurrentPlayer {
		return ErrNotOwnPiece
	}

	e.state.SelectedOrigin = &pos
	e.state.Message = "Piece selected. Choose an empty cell to move it to"
	return nil
}

// RelocatePiece moves one of the mover's pieces inside the active window
func (e *GameEngine) RelocatePiece(fromX, fromY, toX, toY int) error {
	if e.IsGameOver() {
		return ErrGameOver
	}
	if e.state.Mode != ModeRelocatingPiece {
		return ErrWrongMode
	}

	from := Position{X: fromX, Y: fromY}
	to := Position{X: toX, Y: toY}
	if !e.state.InWindow(from) || !e.state.InWindow(to) {
		return ErrOutOfWindow
	}

	mover := e.state.CurrentPlayer
	switch e.state.Board.At(from) {
	case NoPlayer:
		return ErrOriginEmpty
	case mover:
	default:
		return ErrNotOwnPiece
	}
	if e.state.SelectedOrigin != nil && *e.state.SelectedOrigin != from {
		return ErrSelectionMismatch
	}
	if e.state.Board.At(to) != NoPlayer {
		return ErrDestinationOccupied
	}

	e.state.Board[toX][toY] = mover
	e.state.Board[fromX][fromY] = NoPlayer

	e.completeMove(Move{Kind: MoveRelocatePiece, From: &from, To: to},
		fmt.Sprintf("%s moved a piece from (%d,%d) to (%d,%d)", mover, fromX, fromY, toX, toY))
	return nil
}

// Apply performs a complete move, entering the relocation mode it needs.
// On failure the mode and selection are left as they were.
func (e *GameEngine) Apply(move Move) error {
	if e.IsGameOver() {
		return ErrGameOver
	}

	prevMode, prevOrigin := e.state.Mode, e.state.SelectedOrigin

	var err error
	switch move.Kind {
	case MovePlace:
		e.state.Mode = ModeNormal
		e.state.SelectedOrigin = nil
		err = e.PlacePiece(move.To.X, move.To.Y)
	case MoveRelocateWindow:
		if err = e.enterMode(ModeRelocatingWindow); err == nil {
			err = e.RelocateWindow(move.To.X, move.To.Y)
		}
	case MoveRelocatePiece:
		if move.From == nil {
			return ErrOriginEmpty
		}
		if err = e.enterMode(ModeRelocatingPiece); err == nil {
			err = e.RelocatePiece(move.From.X, move.From.Y, move.To.X, move.To.Y)
		}
	default:
		return fmt.Errorf("unknown move kind %q", move.Kind)
	}

	if err != nil {
		e.state.Mode, e.state.SelectedOrigin = prevMode, prevOrigin
	}
	return err
}

func (e *GameEngine) enterMode(mode Mode) error {
	if err := e.checkRelocationUnlocked(); err != nil {
		return err
	}
	e.state.Mode = mode
	e.state.SelectedOrigin = nil
	return nil
}

// completeMove ends the mover's turn after a successful action
func (e *GameEngine) completeMove(move Move, message string) {
	mover := e.state.CurrentPlayer

	e.state.Mode = ModeNormal
	e.state.SelectedOrigin = nil
	e.state.CurrentPlayer = mover.Opponent()
	e.state.Outcome = evaluateOutcome(&e.state.Board, e.state.Window)

	switch e.state.Outcome {
	case OutcomeXWins:
		e.state.Message = message + ". X wins!"
	case OutcomeOWins:
		e.state.Message = message + ". O wins!"
	case OutcomeTie:
		e.state.Message = message + ". It's a tie!"
	default:
		e.state.Message = message
	}

	e.state.AddMoveToHistory(move, mover)
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return cloneHistory(e.state.MoveHistory)
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	last := e.state.MoveHistory[len(e.state.MoveHistory)-1]
	return &last
}

// AddMoveToHistory adds a completed move to the game's move history
func (gs *GameState) AddMoveToHistory(move Move, mover Player) {
	entry := MoveHistoryEntry{
		Action:     move.Kind,
		Player:     mover,
		From:       move.From,
		To:         move.To,
		Outcome:    gs.Outcome,
		MatchID:    gs.MatchID,
		Timestamp:  time.Now().Unix(),
		MoveNumber: gs.TotalMoves + 1,
	}
	// Append to cumulative history (never cleared by reset) and increment total
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	// Append to current match history and increment its counter
	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++
}

// Clone returns a deep copy of the snapshot
func (gs *GameState) Clone() *GameState {
	clone := *gs
	if gs.SelectedOrigin != nil {
		origin := *gs.SelectedOrigin
		clone.SelectedOrigin = &origin
	}
	clone.MoveHistory = cloneHistory(gs.MoveHistory)
	clone.CurrentMoves = cloneHistory(gs.CurrentMoves)
	return &clone
}

func cloneHistory(entries []MoveHistoryEntry) []MoveHistoryEntry {
	if entries == nil {
		return nil
	}
	out := make([]MoveHistoryEntry, len(entries))
	copy(out, entries)
	return out
}

// ValidateState checks a snapshot for internal consistency
func ValidateState(state *GameState) error {
	if !state.CurrentPlayer.Valid() {
		return fmt.Errorf("state validation: current_player must be X or O, got %q", state.CurrentPlayer)
	}
	if state.Window.X < 0 || state.Window.Y < 0 || state.Window.X > MaxWindowCorner || state.Window.Y > MaxWindowCorner {
		return fmt.Errorf("state validation: window (%d,%d) must be within 0..%d", state.Window.X, state.Window.Y, MaxWindowCorner)
	}

	for x := 0; x < BoardSize; x++ {
		for y := 0; y < BoardSize; y++ {
			if cell := state.Board[x][y]; cell != NoPlayer && !cell.Valid() {
				return fmt.Errorf("state validation: invalid piece %q at (%d,%d)", cell, x, y)
			}
		}
	}

	for _, p := range []Player{PlayerX, PlayerO} {
		remaining := state.PiecesRemaining(p)
		if remaining < 0 || remaining > PiecesPerPlayer {
			return fmt.Errorf("state validation: %s pieces remaining must be between 0 and %d, got %d", p, PiecesPerPlayer, remaining)
		}
		if placed := state.Board.Count(p); placed != PiecesPerPlayer-remaining {
			return fmt.Errorf("state validation: %s has %d pieces on the board but %d remaining", p, placed, remaining)
		}
	}

	switch state.Mode {
	case ModeNormal, ModeRelocatingWindow:
		if state.SelectedOrigin != nil {
			return fmt.Errorf("state validation: selected_origin requires mode %s", ModeRelocatingPiece)
		}
	case ModeRelocatingPiece:
		if origin := state.SelectedOrigin; origin != nil {
			if !state.InWindow(*origin) || state.Board.At(*origin) != state.CurrentPlayer {
				return fmt.Errorf("state validation: selected_origin (%d,%d) is not a piece of %s in the window", origin.X, origin.Y, state.CurrentPlayer)
			}
		}
	default:
		return fmt.Errorf("state validation: unknown mode %q", state.Mode)
	}

	return nil
}
