/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"
)

// rebuildIndexCmd re-embeds every stored chunk into the active
// collection from the metadata database. Run it after an embedding
// outage or to populate a fresh collection version.
var rebuildIndexCmd = &cobra.Command{
	Use:   "rebuild-index",
	Short: "Rebuild the vector collection from the metadata database",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		a, err := buildApp(ctx)
		if err != nil {
			log.Fatalf("Failed to build pipeline: %v", err)
		}
		defer a.Close()

		if err := a.ingest.EnsureCollection(ctx, a.cfg.Qdrant.BaseCollection); err != nil {
			log.Fatalf("Failed to resolve collection: %v", err)
		}

		result := a.ingest.RebuildVectors(ctx)

		out, _ := json.MarshalIndent(result, "", "  ")
		os.Stdout.Write(append(out, '\n'))

		if !result.Success {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(rebuildIndexCmd)
}
