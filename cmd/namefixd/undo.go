package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUndoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Reverse the most recent rename or conversion",
		Long: `undo pops the most recent journal entry and renames its destination
back toward its original path. If the original path is now occupied, a
"_restored" suffix is appended instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := svc.UndoLast()
			if err != nil {
				return fmt.Errorf("undo: %w", err)
			}
			if !result.Ok {
				fmt.Printf("nothing to undo: %s\n", result.Reason)
				return nil
			}
			fmt.Printf("restored %s\n", result.Restore)
			return nil
		},
	}
	return cmd
}
