// Package migrate is the schema migration tool. The API server also
// migrates on boot; this command exists for running migrations ahead of
// a deploy or against a database no server points at yet.
package migrate

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/photoshare/photoshare-api/internal/di"
	"github.com/photoshare/photoshare-api/internal/tools/common"
)

type options struct {
	envFile string
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "migrate", Short: "Database schema tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newUpCommand(opts))
	return cmd
}

func newUpCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply the schema to the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := up(opts)
			if opts.ci {
				common.PrintCIResult(err == nil, "migrate up", nil, err)
			} else {
				common.PrintResult("migrate up", nil, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func up(opts *options) error {
	if err := common.LoadEnvFile(opts.envFile); err != nil {
		return err
	}
	runner, err := di.InitializeMigrationRunner()
	if err != nil {
		return err
	}
	return runner.Run()
}
