package engine

// evaluateOutcome checks the active window for lines of three.
// A tie means one action completed lines for both players.
func evaluateOutcome(board *Board, window Position) Outcome {
	xWins := hasLine(board, window, PlayerX)
	oWins := hasLine(board, window, PlayerO)

	switch {
	case xWins && oWins:
		return OutcomeTie
	case xWins:
		return OutcomeXWins
	case oWins:
		return OutcomeOWins
	default:
		return OutcomeOngoing
	}
}

// hasLine reports whether p owns WinLength consecutive cells inside the window
func hasLine(board *Board, window Position, p Player) bool {
	for y := window.Y; y < window.Y+WindowSize; y++ {
		if hasRun(board, window, p, Position{window.X, y}, 1, 0) {
			return true
		}
	}

	for x := window.X; x < window.X+WindowSize; x++ {
		if hasRun(board, window, p, Position{x, window.Y}, 0, 1) {
			return true
		}
	}

	// Every window cell is a potential diagonal start in both directions
	for y := window.Y; y < window.Y+WindowSize; y++ {
		for x := window.X; x < window.X+WindowSize; x++ {
			start := Position{x, y}
			if hasRun(board, window, p, start, 1, 1) || hasRun(board, window, p, start, 1, -1) {
				return true
			}
		}
	}

	return false
}

// hasRun walks from start in direction (dx,dy) while inside the window
func hasRun(board *Board, window Position, p Player, start Position, dx, dy int) bool {
	count := 0
	x, y := start.X, start.Y
	for inWindow(window, Position{X: x, Y: y}) {
		if board[x][y] == p {
			count++
			if count >= WinLength {
				return true
			}
		} else {
			count = 0
		}
		x += dx
		y += dy
	}
	return false
}

// checkWindowMove validates a window relocation target against the current corner
func checkWindowMove(current, target Position) error {
	if target.X < 0 || target.Y < 0 || target.X > MaxWindowCorner || target.Y > MaxWindowCorner {
		return ErrOutOfBounds
	}
	if abs(target.X-current.X) > 1 || abs(target.Y-current.Y) > 1 {
		return ErrNotAdjacent
	}
	if target == current {
		return ErrSamePosition
	}
	return nil
}

// windowNeighbors lists the 8 Chebyshev-adjacent corners of the window,
// including ones that fall out of bounds
func windowNeighbors(current Position) []Position {
	directions := []struct{ dx, dy int }{
		{-1, 0},
		{1, 0},
		{0, -1},
		{0, 1},
		{-1, -1},
		{-1, 1},
		{1, -1},
		{1, 1},
	}

	neighbors := make([]Position, 0, len(directions))
	for _, dir := range directions {
		neighbors = append(neighbors, Position{current.X + dir.dx, current.Y + dir.dy})
	}
	return neighbors
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
