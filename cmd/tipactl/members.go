package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tipa/internal/membership"
	"tipa/internal/repository"
)

var (
	listStatus   string
	listLevel    string
	listQuery    string
	listLimit    int
	actingAdmin  uint
	rejectReason string
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Inspect and administer member profiles",
}

var membersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List members with their resolved standing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			svc, err := e.memberService()
			if err != nil {
				return err
			}
			filter := repository.MemberFilter{
				Status: membership.Status(listStatus),
				Level:  membership.Level(listLevel),
				Query:  listQuery,
			}
			members, err := svc.List(ctx, filter, listLimit, 0)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tNAME\tLEVEL\tSTATUS\tSTANDING\tEXPIRES")
			for _, m := range members {
				st := svc.StatusOf(m)
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					m.ID, m.Email, m.FullName, m.MembershipLevel, m.Status, st.Label, st.ExpiresIn)
			}
			return w.Flush()
		})
	},
}

func memberIDArg(args []string) (uint, error) {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid member ID %q", args[0])
	}
	return uint(id), nil
}

var membersApproveCmd = &cobra.Command{
	Use:   "approve <member-id>",
	Short: "Approve a pending application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := memberIDArg(args)
		if err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			svc, err := e.memberService()
			if err != nil {
				return err
			}
			m, err := svc.Approve(ctx, actingAdmin, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Approved %s (%s)\n", m.Email, m.MembershipLevel)
			return nil
		})
	},
}

var membersRejectCmd = &cobra.Command{
	Use:   "reject <member-id>",
	Short: "Reject a pending application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := memberIDArg(args)
		if err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			svc, err := e.memberService()
			if err != nil {
				return err
			}
			m, err := svc.Reject(ctx, actingAdmin, id, rejectReason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rejected %s\n", m.Email)
			return nil
		})
	},
}

var membersPromoteCmd = &cobra.Command{
	Use:   "promote <member-id>",
	Short: "Grant admin rights to a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := memberIDArg(args)
		if err != nil {
			return err
		}
		revoke, _ := cmd.Flags().GetBool("revoke")
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			svc, err := e.memberService()
			if err != nil {
				return err
			}
			m, err := svc.SetAdmin(ctx, id, !revoke)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s admin=%t\n", m.Email, m.IsAdmin)
			return nil
		})
	},
}

var membersDeleteCmd = &cobra.Command{
	Use:   "delete <member-id>",
	Short: "Remove a member profile, keeping the threads and comments they wrote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := memberIDArg(args)
		if err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			svc, err := e.memberService()
			if err != nil {
				return err
			}
			m, err := svc.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if err := svc.Delete(ctx, actingAdmin, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", m.Email)
			return nil
		})
	},
}

func init() {
	membersListCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (pending, approved, rejected, expired)")
	membersListCmd.Flags().StringVar(&listLevel, "level", "", "filter by membership level")
	membersListCmd.Flags().StringVarP(&listQuery, "query", "q", "", "search name, email or company")
	membersListCmd.Flags().IntVar(&listLimit, "limit", 100, "maximum rows")

	for _, c := range []*cobra.Command{membersApproveCmd, membersRejectCmd, membersDeleteCmd} {
		c.Flags().UintVar(&actingAdmin, "admin-id", 0, "member ID of the admin acting")
		_ = c.MarkFlagRequired("admin-id")
	}
	membersRejectCmd.Flags().StringVar(&rejectReason, "reason", "", "reason shown to the applicant")
	membersPromoteCmd.Flags().Bool("revoke", false, "remove admin rights instead")

	membersCmd.AddCommand(membersListCmd, membersApproveCmd, membersRejectCmd, membersPromoteCmd, membersDeleteCmd)
	rootCmd.AddCommand(membersCmd)
}
