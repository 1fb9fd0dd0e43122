package engine

import "errors"

// Reason categorizes why an action was rejected
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonNoPiecesLeft        Reason = "no_pieces_left"
	ReasonOutOfWindow         Reason = "out_of_window"
	ReasonCellOccupied        Reason = "cell_occupied"
	ReasonNotAdjacent         Reason = "not_adjacent"
	ReasonSamePosition        Reason = "same_position"
	ReasonOutOfBounds         Reason = "out_of_bounds"
	ReasonWrongMode           Reason = "wrong_mode"
	ReasonNotOwnPiece         Reason = "not_own_piece"
	ReasonOriginEmpty         Reason = "origin_empty"
	ReasonDestinationOccupied Reason = "destination_occupied"
	ReasonSelectionMismatch   Reason = "selection_mismatch"
	ReasonTooFewPlaced        Reason = "too_few_placed"
	ReasonGameOver            Reason = "game_over"
	ReasonNoMoveAvailable     Reason = "no_move_available"
)

// RuleError reports a rejected action. Rejected actions leave the state unchanged.
type RuleError struct {
	Reason  Reason
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

var (
	ErrNoPiecesLeft        = &RuleError{ReasonNoPiecesLeft, "no pieces left to place"}
	ErrOutOfWindow         = &RuleError{ReasonOutOfWindow, "cell is outside the active window"}
	ErrCellOccupied        = &RuleError{ReasonCellOccupied, "cell already has a piece in it"}
	ErrNotAdjacent         = &RuleError{ReasonNotAdjacent, "window can only move to an adjacent position"}
	ErrSamePosition        = &RuleError{ReasonSamePosition, "window is already at that position"}
	ErrOutOfBounds         = &RuleError{ReasonOutOfBounds, "window cannot move out of bounds"}
	ErrWrongMode           = &RuleError{ReasonWrongMode, "action not allowed in the current mode"}
	ErrNotOwnPiece         = &RuleError{ReasonNotOwnPiece, "you can only move your own pieces"}
	ErrOriginEmpty         = &RuleError{ReasonOriginEmpty, "there is no piece to move"}
	ErrDestinationOccupied = &RuleError{ReasonDestinationOccupied, "destination already has a piece in it"}
	ErrSelectionMismatch   = &RuleError{ReasonSelectionMismatch, "origin does not match the selected piece"}
	ErrTooFewPlaced        = &RuleError{ReasonTooFewPlaced, "place at least three pieces before relocating"}
	ErrGameOver            = &RuleError{ReasonGameOver, "game is already finished"}
	ErrNoMoveAvailable     = &RuleError{ReasonNoMoveAvailable, "no legal move available"}
)

// ReasonOf extracts the rejection reason from err, or ReasonNone
func ReasonOf(err error) Reason {
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		return ruleErr.Reason
	}
	return ReasonNone
}

// IsRuleError reports whether err is a rule rejection rather than an internal failure
func IsRuleError(err error) bool {
	var ruleErr *RuleError
	return errors.As(err, &ruleErr)
}
