package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tipa/internal/repository"
	"tipa/internal/service"
)

var importAdmin uint

var invitesCmd = &cobra.Command{
	Use:   "invites",
	Short: "Manage membership invites",
}

var invitesImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Create invites from a CSV with header email,full_name,membership_level",
	Long: `Create invites from a CSV file. Claim codes are printed once and cannot be
recovered afterwards; deliver them to the invitees from this output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		return withEnv(cmd, func(ctx context.Context, e *env) error {
			svc := service.NewInviteService(
				repository.NewInviteRepository(e.db),
				repository.NewMemberRepository(e.db),
				e.cfg.InviteTTL(),
				e.cfg.InviteMaxRows,
			)
			report, err := svc.ImportCSV(ctx, importAdmin, f)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ROW\tEMAIL\tOUTCOME\tINVITE\tCODE\tREASON")
			for _, r := range report.Rows {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", r.Row, r.Email, r.Outcome, r.InviteID, r.Code, r.Reason)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\ncreated=%d skipped=%d invalid=%d\n", report.Created, report.Skipped, report.Invalid)
			return nil
		})
	},
}

func init() {
	invitesImportCmd.Flags().UintVar(&importAdmin, "admin-id", 0, "member ID of the admin recorded as the inviter")
	_ = invitesImportCmd.MarkFlagRequired("admin-id")

	invitesCmd.AddCommand(invitesImportCmd)
	rootCmd.AddCommand(invitesCmd)
}
