package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jsonapiq/internal/config"
)

type commandline struct {
	v   *viper.Viper
	run func(ctx context.Context, cfg *config.Config) error
}

// NewRootCmd builds the server command.
func NewRootCmd() (*cobra.Command, error) {
	return newRootCmd(serve)
}

func newRootCmd(run func(ctx context.Context, cfg *config.Config) error) (*cobra.Command, error) {
	cl := &commandline{v: config.New(), run: run}

	cmd := &cobra.Command{
		Use:   "server",
		Short: "server - serve JSON:API collection routes over the content tables",
		Long: `server answers /jsonapi/{entity_type}/{bundle} with the filtered, sorted
and paged collection, and /jsonapi/{entity_type}/{bundle}/query with the
parsed query and its SQL. Without a database URL only the query route works.

Flags override environment variables prefixed with "JSONAPIQ_", e.g.
JSONAPIQ_DATABASE_URL, which override the config file.
`,
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
			return cl.run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "path to config file")
	flags.String("port", "8080", "HTTP listen port")
	flags.String("env", "development", "environment name; development enables verbose errors")
	flags.String("log-level", "info", "log level")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.Int("max-limit", 50, "page size cap")
	flags.String("tracing-exporter", "none", "trace exporter: none, console or otlp-http")

	for key, name := range map[string]string{
		"app.port":         "port",
		"app.env":          "env",
		"log.level":        "log-level",
		"database.url":     "database-url",
		"page.max_limit":   "max-limit",
		"tracing.exporter": "tracing-exporter",
	} {
		if err := cl.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}
