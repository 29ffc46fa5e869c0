package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dwrtz/namefixd/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change the persisted configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current status and profiles as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := svc.GetStatus()
			if err != nil {
				return fmt.Errorf("read status: %w", err)
			}
			profiles, err := svc.GetProfiles()
			if err != nil {
				return fmt.Errorf("read profiles: %w", err)
			}
			out := struct {
				Status   any `json:"status"`
				Profiles any `json:"profiles"`
			}{Status: status, Profiles: profiles}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var (
		dryRun        bool
		launchOnLogin bool
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update dryRun / launchOnLogin and print the resulting configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := config.Overrides{}
			if cmd.Flags().Changed("dry-run") {
				overrides.DryRun = &dryRun
			}
			if cmd.Flags().Changed("launch-on-login") {
				overrides.LaunchOnLogin = &launchOnLogin
			}

			cfg, err := svc.SetConfig(overrides)
			if err != nil {
				return fmt.Errorf("set config: %w", err)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview actions instead of mutating disk")
	cmd.Flags().BoolVar(&launchOnLogin, "launch-on-login", false, "start namefixd on login")
	return cmd
}
