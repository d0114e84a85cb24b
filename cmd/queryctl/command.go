package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jsonapiq/internal/config"
	"jsonapiq/internal/domain/content"
	"jsonapiq/internal/domain/query"
	"jsonapiq/internal/domain/resource"
	"jsonapiq/internal/infrastructure/http/v1/dto"
	"jsonapiq/internal/infrastructure/storage/postgres/entity_repo"
	"jsonapiq/internal/metadata"
)

type commandline struct {
	v        *viper.Viper
	registry *metadata.Registry
}

// NewRootCmd builds the queryctl command tree.
func NewRootCmd() (*cobra.Command, error) {
	cl := &commandline{
		v:        config.New(),
		registry: content.NewRegistry(),
	}

	cmd := &cobra.Command{
		Use:   "queryctl",
		Short: "queryctl - inspect how JSON:API filter, sort and page parameters are parsed",
		Long: `queryctl parses JSON:API query strings against the built-in content
registry and prints the parsed query together with the SQL it compiles to.

Settings can also be given through environment variables prefixed with
"JSONAPIQ_", e.g. JSONAPIQ_PAGE_MAX_LIMIT=20.
`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().Int("max-limit", 50, "page size cap")
	cmd.PersistentFlags().Bool("compact", false, "print JSON without indentation")
	if err := cl.v.BindPFlag("page.max_limit", cmd.PersistentFlags().Lookup("max-limit")); err != nil {
		return nil, err
	}

	cmd.AddCommand(cl.parseCmd(), cl.resourcesCmd())
	return cmd, nil
}

func (cl *commandline) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "parse <entity_type> <bundle> <query>",
		Short:   "Parse a query string and print the query and its SQL",
		Example: `  queryctl parse node article 'filter[uid.name]=admin&sort=-created&page[limit]=5'`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromViper(cl.v)
			if err != nil {
				return err
			}
			res := resource.Type{EntityTypeID: args[0], Bundle: args[1]}
			if !cl.registry.HasResource(res.EntityTypeID, res.Bundle) {
				return fmt.Errorf("unknown resource type %s", res.Name())
			}

			resolver := metadata.NewFieldResolver(cl.registry)
			parser := query.NewParser(query.Config{
				Paths:    resolver,
				Includes: resolver,
				MaxLimit: cfg.Page.MaxLimit,
			})
			q, err := parser.ParseRaw(context.Background(), res, args[2])
			if err != nil {
				return err
			}

			compiled, err := entity_repo.NewCompiler(cl.registry).Compile(q)
			if err != nil {
				return err
			}
			sql, sqlArgs, err := compiled.SQL()
			if err != nil {
				return err
			}
			countSQL, _, err := compiled.Count.ToSql()
			if err != nil {
				return err
			}
			if sqlArgs == nil {
				sqlArgs = []any{}
			}
			return cl.print(cmd, dto.QueryDocument{Query: q, SQL: sql, Args: sqlArgs, Count: countSQL})
		},
	}
}

func (cl *commandline) resourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resource types queries can address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, def := range cl.registry.List() {
				for _, b := range def.Bundles {
					if _, err := fmt.Fprintln(out, resource.Type{EntityTypeID: def.Name, Bundle: b.Name}.Name()); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

func (cl *commandline) print(cmd *cobra.Command, doc any) error {
	compact, err := cmd.Flags().GetBool("compact")
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), doc, compact)
}

func writeJSON(w io.Writer, doc any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}
