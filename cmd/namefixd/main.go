package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dwrtz/namefixd/internal/config"
	"github.com/dwrtz/namefixd/internal/namefix"
)

var (
	svc *namefix.Service

	flagWatchDirs []string
	flagDryRun    bool
	flagPrefix    string
	flagInclude   []string
	flagExclude   []string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "namefixd",
	Short: "namefixd - watch folders and rename/convert files as they land",
	Long: `namefixd watches one or more directories for newly-created files and
applies profile-driven rename and image-conversion rules to them as they
arrive, with dry-run preview and an undo journal.

Example usage:
  namefixd run --watch ~/Downloads --dry-run
  namefixd config show
  namefixd undo`,
	Version: "0.1.0",
}

func initService() error {
	svc = namefix.New(namefix.Deps{
		Logger: log.New(os.Stderr, "[namefixd] ", log.LstdFlags),
	})

	overrides := config.Overrides{DryRun: &flagDryRun}
	if len(flagWatchDirs) > 0 {
		overrides.WatchDirs = flagWatchDirs
	}
	if flagPrefix != "" {
		overrides.Prefix = &flagPrefix
	}
	if len(flagInclude) > 0 {
		overrides.Include = flagInclude
	}
	if len(flagExclude) > 0 {
		overrides.Exclude = flagExclude
	}

	if err := svc.Init(overrides); err != nil {
		return fmt.Errorf("initialize namefixd: %w", err)
	}
	return nil
}

func initialize() {
	rootCmd.PersistentFlags().StringSliceVarP(&flagWatchDirs, "watch", "w", nil, "directories to watch (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "preview actions instead of mutating disk")
	rootCmd.PersistentFlags().StringVar(&flagPrefix, "prefix", "", "legacy rename prefix")
	rootCmd.PersistentFlags().StringSliceVar(&flagInclude, "include", nil, "legacy include glob patterns")
	rootCmd.PersistentFlags().StringSliceVar(&flagExclude, "exclude", nil, "legacy exclude glob patterns")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	cobra.OnInitialize(func() {
		if err := initService(); err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing namefixd: %v\n", err)
			os.Exit(1)
		}
	})

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newProfileCmd())
}

func main() {
	initialize()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
