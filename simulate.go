package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/wricardo/tic-tac-two/game/engine"
)

// DefaultMaxTurns bounds a simulated match; AI-vs-AI relocation play can
// cycle forever.
const DefaultMaxTurns = 200

// SimulationReport summarizes a batch of AI-vs-AI matches.
type SimulationReport struct {
	Games      int
	XWins      int
	OWins      int
	Ties       int
	Unfinished int
	Stuck      int
	TotalTurns int
	Longest    int
}

// simulateMatches plays games matches on fresh engines. Match i is seeded
// with seed+i so a run can be replayed.
func simulateMatches(games int, seed uint64, maxTurns int) (*SimulationReport, error) {
	if games <= 0 {
		return nil, fmt.Errorf("games must be positive, got %d", games)
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	report := &SimulationReport{Games: games}
	for i := 0; i < games; i++ {
		eng := engine.NewEngine(engine.WithSeed(seed + uint64(i)))

		turns := 0
		stuck := false
		for !eng.IsGameOver() && turns < maxTurns {
			if _, err := eng.PlayAIMove(); err != nil {
				if errors.Is(err, engine.ErrNoMoveAvailable) {
					stuck = true
					break
				}
				return nil, fmt.Errorf("game %d turn %d: %w", i+1, turns+1, err)
			}
			turns++
		}

		report.TotalTurns += turns
		if turns > report.Longest {
			report.Longest = turns
		}

		switch eng.Outcome() {
		case engine.OutcomeXWins:
			report.XWins++
		case engine.OutcomeOWins:
			report.OWins++
		case engine.OutcomeTie:
			report.Ties++
		default:
			if stuck {
				report.Stuck++
			} else {
				report.Unfinished++
			}
		}
	}

	return report, nil
}

// AverageTurns is the mean match length.
func (r *SimulationReport) AverageTurns() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.TotalTurns) / float64(r.Games)
}

// Print writes the report in the same plain layout the analysis tools use.
func (r *SimulationReport) Print(w io.Writer) {
	fmt.Fprintf(w, "=== Simulated %d games ===\n", r.Games)
	fmt.Fprintf(w, "X wins:      %d (%.1f%%)\n", r.XWins, r.percent(r.XWins))
	fmt.Fprintf(w, "O wins:      %d (%.1f%%)\n", r.OWins, r.percent(r.OWins))
	fmt.Fprintf(w, "Ties:        %d (%.1f%%)\n", r.Ties, r.percent(r.Ties))
	fmt.Fprintf(w, "Unfinished:  %d\n", r.Unfinished)
	if r.Stuck > 0 {
		fmt.Fprintf(w, "No move:     %d\n", r.Stuck)
	}
	fmt.Fprintf(w, "Avg turns:   %.1f\n", r.AverageTurns())
	fmt.Fprintf(w, "Longest:     %d\n", r.Longest)
}

func (r *SimulationReport) percent(n int) float64 {
	if r.Games == 0 {
		return 0
	}
	return 100 * float64(n) / float64(r.Games)
}
