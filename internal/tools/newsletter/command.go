package newsletter

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/photoshare/photoshare-api/internal/config"
	"github.com/photoshare/photoshare-api/internal/database"
	"github.com/photoshare/photoshare-api/internal/repository"
	"github.com/photoshare/photoshare-api/internal/service"
	"github.com/photoshare/photoshare-api/internal/tools/common"
)

type options struct {
	envFile  string
	lookback time.Duration
	dryRun   bool
	ci       bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "newsletter", Short: "Newsletter tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.lookback, "lookback", 0, "override recipient window, e.g. 168h")
	cmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "list recipients without sending")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newSendCommand(opts))
	return cmd
}

func newSendCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Send the newsletter to recently registered active users",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := send(cmd, opts)
			if opts.ci {
				common.PrintCIResult(err == nil, "newsletter send", details, err)
			} else {
				common.PrintResult("newsletter send", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func send(cmd *cobra.Command, opts *options) ([]string, error) {
	if err := common.LoadEnvFile(opts.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	lookback := cfg.NewsletterLookback
	if opts.lookback > 0 {
		lookback = opts.lookback
	}
	mailer := NewSMTPMailer(cfg.SMTPAddr, cfg.NewsletterFromAddress)
	users := service.NewUserService(repository.NewUserRepository(db))
	sender := NewSender(users, mailer, lookback)
	return sender.Run(cmd.Context(), opts.dryRun)
}
