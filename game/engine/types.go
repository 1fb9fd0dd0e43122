package engine

// Player identifies the owner of a piece or the side to move
type Player string

const (
	NoPlayer Player = ""
	PlayerX  Player = "X"
	PlayerO  Player = "O"
)

// Board and rule constants
const (
	BoardSize       = 5
	WindowSize      = 3
	MaxWindowCorner = BoardSize - WindowSize
	PiecesPerPlayer = 5
	WinLength       = 3

	// Relocation unlocks once the mover has at most this many pieces left
	RelocationThreshold = 2

	DefaultWindowX = 1
	DefaultWindowY = 1
)

// Opponent returns the other side. NoPlayer has no opponent.
func (p Player) Opponent() Player {
	switch p {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return NoPlayer
	}
}

// Valid reports whether p is X or O
func (p Player) Valid() bool {
	return p == PlayerX || p == PlayerO
}

// Mode is the current interaction mode of the mover
type Mode string

const (
	ModeNormal           Mode = "normal"
	ModeRelocatingWindow Mode = "relocating_window"
	ModeRelocatingPiece  Mode = "relocating_piece"
)

// Outcome is the derived result of the game
type Outcome string

const (
	OutcomeOngoing Outcome = "ongoing"
	OutcomeXWins   Outcome = "x_wins"
	OutcomeOWins   Outcome = "o_wins"
	OutcomeTie     Outcome = "tie"
)

// IsTerminal reports whether the game is decided
func (o Outcome) IsTerminal() bool {
	return o == OutcomeXWins || o == OutcomeOWins || o == OutcomeTie
}

// Winner returns the winning player, or NoPlayer for ongoing games and ties
func (o Outcome) Winner() Player {
	switch o {
	case OutcomeXWins:
		return PlayerX
	case OutcomeOWins:
		return PlayerO
	default:
		return NoPlayer
	}
}

// Position represents x,y coordinates on the board
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// OnBoard reports whether the position lies on the 5x5 board
func (p Position) OnBoard() bool {
	return p.X >= 0 && p.Y >= 0 && p.X < BoardSize && p.Y < BoardSize
}

// Board holds the pieces, indexed as board[x][y]
type Board [BoardSize][BoardSize]Player

// At returns the piece at pos, or NoPlayer when pos is off the board
func (b Board) At(pos Position) Player {
	if !pos.OnBoard() {
		return NoPlayer
	}
	return b[pos.X][pos.Y]
}

// Count returns the number of pieces owned by p
func (b Board) Count(p Player) int {
	count := 0
	for x := 0; x < BoardSize; x++ {
		for y := 0; y < BoardSize; y++ {
			if b[x][y] == p {
				count++
			}
		}
	}
	return count
}

// MoveKind names a turn-completing action
type MoveKind string

const (
	MovePlace          MoveKind = "place"
	MoveRelocateWindow MoveKind = "relocate_window"
	MoveRelocatePiece  MoveKind = "relocate_piece"
)

// Move describes a complete action that ends the mover's turn.
// For MoveRelocateWindow, To is the new window corner.
type Move struct {
	Kind MoveKind  `json:"kind"`
	To   Position  `json:"to"`
	From *Position `json:"from,omitempty"`
}

// GameState is a detached snapshot of the game
type GameState struct {
	Board            Board     `json:"board"`
	Window           Position  `json:"window"`
	CurrentPlayer    Player    `json:"current_player"`
	XPiecesRemaining int       `json:"x_pieces_remaining"`
	OPiecesRemaining int       `json:"o_pieces_remaining"`
	Mode             Mode      `json:"mode"`
	SelectedOrigin   *Position `json:"selected_origin,omitempty"`
	Outcome          Outcome   `json:"outcome"`
	Message          string    `json:"message"`
	MatchID          string    `json:"match_id"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves of the current match. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`
}

// MoveHistoryEntry represents a single completed move in the game history
type MoveHistoryEntry struct {
	Action     MoveKind  `json:"action"`
	Player     Player    `json:"player"`
	From       *Position `json:"from,omitempty"`
	To         Position  `json:"to"`
	Outcome    Outcome   `json:"outcome"`
	MatchID    string    `json:"match_id"`
	Timestamp  int64     `json:"timestamp"`
	MoveNumber int       `json:"move_number"`
}

// PiecesRemaining returns the inventory of p in this snapshot
func (gs *GameState) PiecesRemaining(p Player) int {
	switch p {
	case PlayerX:
		return gs.XPiecesRemaining
	case PlayerO:
		return gs.OPiecesRemaining
	default:
		return 0
	}
}

// InWindow reports whether pos lies inside the active window of this snapshot
func (gs *GameState) InWindow(pos Position) bool {
	return inWindow(gs.Window, pos)
}

func inWindow(window, pos Position) bool {
	return pos.X >= window.X && pos.X < window.X+WindowSize &&
		pos.Y >= window.Y && pos.Y < window.Y+WindowSize
}
