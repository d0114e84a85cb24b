package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jsonapiq/internal/config"
)

// demoKey holds the --demo flag; it is not part of config.Config.
const demoKey = "seed.demo"

type seedFunc func(ctx context.Context, cfg *config.Config, demo bool) error

type commandline struct {
	v   *viper.Viper
	run seedFunc
}

// NewRootCmd builds the seed command.
func NewRootCmd() (*cobra.Command, error) {
	return newRootCmd(seed)
}

func newRootCmd(run seedFunc) (*cobra.Command, error) {
	cl := &commandline{v: config.New(), run: run}
	cl.v.SetDefault(demoKey, false)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "seed - create the content tables and optionally load demo content",
		Long: `seed creates the node, user, taxonomy and file tables the query routes
read from. With --demo it also inserts a few articles, users and terms.

The database URL comes from --database-url, JSONAPIQ_DATABASE_URL or the
config file.
`,
		Example:      `  seed --database-url postgres://localhost/drupal --demo`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := config.Read(cl.v, file)
			if err != nil {
				return err
			}
			return cl.run(cmd.Context(), cfg, cl.v.GetBool(demoKey))
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "path to config file")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.Bool("demo", false, "load demo content")

	if err := cl.v.BindPFlag("database.url", flags.Lookup("database-url")); err != nil {
		return nil, err
	}
	if err := cl.v.BindPFlag(demoKey, flags.Lookup("demo")); err != nil {
		return nil, err
	}
	return cmd, nil
}
