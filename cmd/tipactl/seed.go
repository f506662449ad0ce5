package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tipa/internal/seed"
)

var presetPath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with generated demo data",
	Long: `Fill the database with generated members, threads, comments, events and
resources. A YAML preset overrides the default volumes and random seed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		preset := seed.DefaultPreset()
		if presetPath != "" {
			p, err := seed.LoadPreset(presetPath)
			if err != nil {
				return err
			}
			preset = p
		}

		return withEnv(cmd, func(ctx context.Context, e *env) error {
			sum, err := seed.NewSeeder(e.db, preset, time.Now()).Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"members=%d threads=%d comments=%d events=%d rsvps=%d resources=%d\n",
				sum.Members, sum.Threads, sum.Comments, sum.Events, sum.RSVPs, sum.Resources)
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().StringVar(&presetPath, "preset", "", "YAML preset file")
	rootCmd.AddCommand(seedCmd)
}
