package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dwrtz/namefixd/internal/eventbus"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start watching the configured directories",
		Long: `run starts the watchers for every configured directory and applies
matching profiles to new, stable files as they arrive. It blocks until
interrupted (Ctrl+C).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc.On(eventbus.KeyFile, func(payload any) {
				fe, ok := payload.(eventbus.FileEvent)
				if !ok {
					return
				}
				fmt.Println(fe.String())
			})
			svc.On(eventbus.KeyToast, func(payload any) {
				toast, ok := payload.(eventbus.ToastEvent)
				if !ok {
					return
				}
				fmt.Fprintf(os.Stderr, "[%s] %s\n", toast.Level, toast.Message)
			})

			if err := svc.Start(); err != nil {
				return fmt.Errorf("start namefixd: %w", err)
			}

			status, err := svc.GetStatus()
			if err != nil {
				return fmt.Errorf("read status: %w", err)
			}
			fmt.Printf("watching %d director(ies), dryRun=%v. Press Ctrl+C to stop.\n", len(status.Directories), status.DryRun)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			fmt.Println("shutting down...")
			return svc.Stop()
		},
	}
	return cmd
}
