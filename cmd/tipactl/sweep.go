package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tipa/internal/jobs"
	"tipa/internal/membership"
	"tipa/internal/repository"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark approved members whose membership has lapsed as expired",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			policy, err := e.cfg.MembershipPolicy()
			if err != nil {
				return err
			}
			sweeper := jobs.NewExpirySweeper(repository.NewMemberRepository(e.db), membership.NewResolver(policy))
			res, err := sweeper.Run(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked=%d expired=%d skipped=%d\n", res.Checked, res.Expired, res.Skipped)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
