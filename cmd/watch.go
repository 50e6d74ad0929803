/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// watchCmd runs the pipeline headless, without the HTTP API. Useful for
// batch hosts where the drop folder is fed by rsync or a share mount.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the watching pipeline without the HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		a, err := buildApp(ctx)
		if err != nil {
			log.Fatalf("Failed to build pipeline: %v", err)
		}
		defer a.Close()

		if err := a.controller.Start(ctx); err != nil {
			log.Fatalf("Failed to start pipeline: %v", err)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		log.Println("Shutting down...")
		a.controller.Stop()
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
