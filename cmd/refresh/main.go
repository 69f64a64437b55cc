package main

import (
	"context"
	"datdash/cmd"
	"datdash/internal/app"
	"datdash/internal/logger"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// one-shot report build: discover, fetch, compute, dump json. useful for
// cron-driven snapshots and for eyeballing a new config record.
func main() {
	var (
		ecosystems []string
		outFile    string
		asOfRaw    string
	)

	rootCmd := &cobra.Command{
		Use:   "refresh",
		Short: "build comparison reports once and write them as json",
		RunE: func(c *cobra.Command, args []string) error {
			apiHandler, _, err := cmd.InitializeDependencies()
			if err != nil {
				return err
			}

			asOf := time.Now().UTC()
			if asOfRaw != "" {
				asOf, err = time.Parse(time.DateOnly, asOfRaw)
				if err != nil {
					return fmt.Errorf("invalid --as-of date %q: %w", asOfRaw, err)
				}
			}

			ctx := logger.AddToContext(context.Background(), logger.New())
			reports, err := apiHandler.ComparisonHandler.Build(ctx, app.BuildInput{
				AsOf:         asOf,
				EcosystemIDs: ecosystems,
			})
			if err != nil {
				return err
			}

			bytes, err := json.MarshalIndent(reports, "", "    ")
			if err != nil {
				return err
			}

			if outFile == "" {
				fmt.Println(string(bytes))
				return nil
			}
			return os.WriteFile(outFile, bytes, 0o644)
		},
	}
	rootCmd.Flags().StringSliceVar(&ecosystems, "ecosystem", nil, "limit the build to these ecosystem ids")
	rootCmd.Flags().StringVar(&outFile, "out", "", "write the report json here instead of stdout")
	rootCmd.Flags().StringVar(&asOfRaw, "as-of", "", "build as of this date (YYYY-MM-DD), default today")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
