package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/tic-tac-two/game/config"
)

var errInvalidPresets = errors.New("some configurations have errors")

// validatePresets prints one block per preset file in dir and fails when
// any of them is unusable.
func validatePresets(w io.Writer, dir string) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}
	results, err := manager.ValidateAll()
	if err != nil {
		return err
	}

	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.Filename)
		if result.Valid() {
			fmt.Fprintln(w, "✅ VALID")
			continue
		}
		allValid = false
		fmt.Fprintln(w, "❌ INVALID")
		fmt.Fprintf(w, "  ❌ %v\n", result.Err)
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		fmt.Fprintln(w, "❌ Some configurations have errors")
		return errInvalidPresets
	}
	fmt.Fprintf(w, "✅ All %d configurations are valid!\n", len(results))
	return nil
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	return validatePresets(cmd.Root().Writer, s.ConfigDir)
}
