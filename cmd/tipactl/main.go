// Command tipactl is the operator CLI for the TIPA backend: schema
// migrations, member administration, invite imports, the expiry sweep and
// demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"tipa/internal/config"
	"tipa/internal/database"
	"tipa/internal/membership"
	"tipa/internal/repository"
	"tipa/internal/service"
)

var (
	version = "dev"

	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "tipactl",
	Short: "Operator tools for the TIPA membership backend",
	Long: `tipactl reads the same environment (.env, DB_*, REDIS_URL, ...) as the API
server and operates directly on its database.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline for the command")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is the configuration and database handle shared by subcommands.
type env struct {
	cfg *config.Config
	db  *gorm.DB
}

func (e *env) memberService() (*service.MemberService, error) {
	policy, err := e.cfg.MembershipPolicy()
	if err != nil {
		return nil, err
	}
	return service.NewMemberService(repository.NewMemberRepository(e.db), membership.NewResolver(policy)), nil
}

// withEnv loads configuration, connects to the database and runs fn under
// the --timeout deadline.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	return fn(ctx, &env{cfg: cfg, db: db})
}
