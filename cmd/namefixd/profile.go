package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dwrtz/namefixd/internal/nametemplate"
	"github.com/dwrtz/namefixd/internal/profile"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "List, add, enable, disable, or remove rename/convert profiles",
	}
	cmd.AddCommand(newProfileListCmd())
	cmd.AddCommand(newProfileAddCmd())
	cmd.AddCommand(newProfileToggleCmd())
	cmd.AddCommand(newProfileRemoveCmd())
	return cmd
}

func newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all profiles in priority order",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := svc.GetProfiles()
			if err != nil {
				return fmt.Errorf("read profiles: %w", err)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(profiles)
		},
	}
}

func newProfileAddCmd() *cobra.Command {
	var (
		id       string
		pattern  string
		isRegex  bool
		template string
		prefix   string
		priority int
		action   string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a profile by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := profile.Profile{
				ID:       id,
				Enabled:  true,
				Pattern:  pattern,
				IsRegex:  isRegex,
				Template: template,
				Prefix:   prefix,
				Priority: priority,
				Action:   profile.Action(action),
			}
			if _, err := svc.SetProfile(p); err != nil {
				return fmt.Errorf("add profile: %w", err)
			}
			if id == "" {
				fmt.Println("saved profile (id auto-assigned)")
			} else {
				fmt.Printf("saved profile %q\n", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "profile id; updates the existing profile with this id, or mints one if omitted")
	cmd.Flags().StringVar(&pattern, "pattern", "", "glob or regex pattern to match against (required)")
	cmd.Flags().BoolVar(&isRegex, "regex", false, "treat pattern as a regex instead of a glob")
	cmd.Flags().StringVar(&template, "template", nametemplate.DefaultTemplate, "rename template (defaults to the built-in timestamp template)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "<prefix> token value")
	cmd.Flags().IntVar(&priority, "priority", 0, "match priority, lower runs first")
	cmd.Flags().StringVar(&action, "action", string(profile.ActionRename), "rename | convert | rename+convert")
	cmd.MarkFlagRequired("pattern")
	return cmd
}

func newProfileToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [id]",
		Short: "Flip a profile's enabled state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := svc.ToggleProfile(args[0]); err != nil {
				return fmt.Errorf("toggle profile: %w", err)
			}
			fmt.Printf("toggled profile %q\n", args[0])
			return nil
		},
	}
}

func newProfileRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [id]",
		Short: "Remove a profile by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := svc.DeleteProfile(args[0]); err != nil {
				return fmt.Errorf("remove profile: %w", err)
			}
			fmt.Printf("removed profile %q\n", args[0])
			return nil
		},
	}
}
