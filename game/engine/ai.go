package engine

// ChooseAIMove picks a move for the side to move without applying it.
//
// While the mover still holds pieces it blocks an opponent line first, then
// completes its own line, and otherwise places on a random empty window cell.
// Without a placement it flips a coin between moving one of its pieces and
// shifting the window, falling back to the window when no piece can move.
func (e *GameEngine) ChooseAIMove() (Move, error) {
	if e.IsGameOver() {
		return Move{}, ErrGameOver
	}

	mover := e.state.CurrentPlayer
	if e.PiecesRemaining(mover) > 0 {
		if pos, ok := e.findCompletingCell(mover.Opponent()); ok {
			return Move{Kind: MovePlace, To: pos}, nil
		}
		if pos, ok := e.findCompletingCell(mover); ok {
			return Move{Kind: MovePlace, To: pos}, nil
		}
		if empty := e.emptyWindowCells(); len(empty) > 0 {
			return Move{Kind: MovePlace, To: empty[e.rng.IntN(len(empty))]}, nil
		}
	}

	if e.PiecesRemaining(mover) > RelocationThreshold {
		return Move{}, ErrNoMoveAvailable
	}

	if e.rng.IntN(2) == 0 {
		if move, ok := e.randomPieceRelocation(mover); ok {
			return move, nil
		}
	}
	if move, ok := e.randomWindowMove(); ok {
		return move, nil
	}
	if move, ok := e.randomPieceRelocation(mover); ok {
		return move, nil
	}
	return Move{}, ErrNoMoveAvailable
}

// PlayAIMove chooses a move for the side to move and applies it
func (e *GameEngine) PlayAIMove() (Move, error) {
	move, err := e.ChooseAIMove()
	if err != nil {
		return Move{}, err
	}
	if err := e.Apply(move); err != nil {
		return Move{}, err
	}
	return move, nil
}

// findCompletingCell scans the window column by column for an empty cell
// that would give p a line
func (e *GameEngine) findCompletingCell(p Player) (Position, bool) {
	window := e.state.Window
	board := e.state.Board

	for x := window.X; x < window.X+WindowSize; x++ {
		for y := window.Y; y < window.Y+WindowSize; y++ {
			if board[x][y] != NoPlayer {
				continue
			}
			board[x][y] = p
			completes := hasLine(&board, window, p)
			board[x][y] = NoPlayer
			if completes {
				return Position{X: x, Y: y}, true
			}
		}
	}
	return Position{}, false
}

func (e *GameEngine) emptyWindowCells() []Position {
	return e.windowCellsOwnedBy(NoPlayer)
}

func (e *GameEngine) windowCellsOwnedBy(p Player) []Position {
	window := e.state.Window
	var cells []Position
	for x := window.X; x < window.X+WindowSize; x++ {
		for y := window.Y; y < window.Y+WindowSize; y++ {
			if e.state.Board[x][y] == p {
				cells = append(cells, Position{X: x, Y: y})
			}
		}
	}
	return cells
}

func (e *GameEngine) randomPieceRelocation(mover Player) (Move, bool) {
	own := e.windowCellsOwnedBy(mover)
	empty := e.emptyWindowCells()
	if len(own) == 0 || len(empty) == 0 {
		return Move{}, false
	}

	from := own[e.rng.IntN(len(own))]
	to := empty[e.rng.IntN(len(empty))]
	return Move{Kind: MoveRelocatePiece, From: &from, To: to}, true
}

func (e *GameEngine) randomWindowMove() (Move, bool) {
	current := e.state.Window
	var legal []Position
	for _, candidate := range windowNeighbors(current) {
		if checkWindowMove(current, candidate) == nil {
			legal = append(legal, candidate)
		}
	}
	if len(legal) == 0 {
		return Move{}, false
	}

	from := current
	return Move{Kind: MoveRelocateWindow, From: &from, To: legal[e.rng.IntN(len(legal))]}, true
}
