package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boardWith(p Player, cells ...Position) Board {
	var b Board
	for _, c := range cells {
		b[c.X][c.Y] = p
	}
	return b
}

func TestEvaluateOutcome(t *testing.T) {
	tests := []struct {
		name   string
		board  Board
		window Position
		want   Outcome
	}{
		{"empty", Board{}, Position{1, 1}, OutcomeOngoing},
		{"row", boardWith(PlayerX, Position{1, 2}, Position{2, 2}, Position{3, 2}), Position{1, 1}, OutcomeXWins},
		{"column", boardWith(PlayerO, Position{3, 1}, Position{3, 2}, Position{3, 3}), Position{1, 1}, OutcomeOWins},
		{"diagonal", boardWith(PlayerX, Position{0, 0}, Position{1, 1}, Position{2, 2}), Position{0, 0}, OutcomeXWins},
		{"anti diagonal", boardWith(PlayerO, Position{2, 2}, Position{3, 1}, Position{4, 0}), Position{2, 0}, OutcomeOWins},
		{"row outside window", boardWith(PlayerX, Position{0, 0}, Position{1, 0}, Position{2, 0}), Position{1, 1}, OutcomeOngoing},
		{"row crossing window edge", boardWith(PlayerX, Position{0, 1}, Position{1, 1}, Position{2, 1}), Position{1, 1}, OutcomeOngoing},
		{"broken row", boardWith(PlayerX, Position{1, 1}, Position{3, 1}), Position{1, 1}, OutcomeOngoing},
		{"diagonal leaving window", boardWith(PlayerO, Position{2, 2}, Position{3, 3}, Position{4, 4}), Position{1, 1}, OutcomeOngoing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evaluateOutcome(&tt.board, tt.window))
		})
	}
}

func TestEvaluateOutcomeTie(t *testing.T) {
	board := boardWith(PlayerX, Position{1, 1}, Position{1, 2}, Position{1, 3})
	board[3][1], board[3][2], board[3][3] = PlayerO, PlayerO, PlayerO

	assert.Equal(t, OutcomeTie, evaluateOutcome(&board, Position{1, 1}))
	// Shifting right leaves only O's column inside
	assert.Equal(t, OutcomeOWins, evaluateOutcome(&board, Position{2, 1}))
}

func TestCheckWindowMove(t *testing.T) {
	tests := []struct {
		name    string
		current Position
		target  Position
		want    error
	}{
		{"right", Position{1, 1}, Position{2, 1}, nil},
		{"diagonal", Position{1, 1}, Position{0, 2}, nil},
		{"same", Position{0, 0}, Position{0, 0}, ErrSamePosition},
		{"two steps", Position{0, 0}, Position{2, 0}, ErrNotAdjacent},
		{"knight", Position{0, 0}, Position{1, 2}, ErrNotAdjacent},
		{"negative", Position{0, 0}, Position{-1, 0}, ErrOutOfBounds},
		{"past edge", Position{2, 2}, Position{2, 3}, ErrOutOfBounds},
		{"two steps past the edge", Position{1, 1}, Position{3, 1}, ErrOutOfBounds},
		{"two steps inside", Position{0, 0}, Position{2, 2}, ErrNotAdjacent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkWindowMove(tt.current, tt.target))
		})
	}
}

func TestWindowNeighbors(t *testing.T) {
	neighbors := windowNeighbors(Position{0, 0})
	assert.Len(t, neighbors, 8)

	legal := 0
	for _, n := range neighbors {
		if checkWindowMove(Position{0, 0}, n) == nil {
			legal++
		}
	}
	assert.Equal(t, 3, legal)

	legal = 0
	for _, n := range windowNeighbors(Position{1, 1}) {
		if checkWindowMove(Position{1, 1}, n) == nil {
			legal++
		}
	}
	assert.Equal(t, 8, legal)
}
