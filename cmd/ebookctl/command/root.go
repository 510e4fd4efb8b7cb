package command

// root.go defines the root command for ebookctl and the shared setup every
// subcommand needs: config, logger and a database pool.

import (
	"context"
	"fmt"
	"os"

	"bukinn/database"
	"bukinn/internal/config"
	"bukinn/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ebookctl",
	Short: "ebookctl - operator tool for the bukinn reading service",
	Long: `ebookctl talks to the bukinn database directly. Use it to:
- Apply or roll back schema migrations
- Promote an account to admin
- Recompute book statistics and apply ratings

Use "ebookctl command --help" to see the flags of each command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log, err = logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Service: "ebookctl"})
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		db, err = database.Connect(cmd.Context(), cfg, log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			database.Close(db)
		}
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
