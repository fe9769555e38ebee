package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tomventa/mdsql/internal/canon"
	"github.com/tomventa/mdsql/internal/database"
	"github.com/tomventa/mdsql/internal/extract"
	"github.com/tomventa/mdsql/internal/query"
	"github.com/tomventa/mdsql/internal/render"
	"github.com/tomventa/mdsql/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP query service",
		Long: `Start the HTTP service. POST /query accepts {"markdown_text", "response_format"}
and requires the X-API-Key header to match server.api_key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())

			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := db.Ping(ctx); err != nil {
				log.Warn().Err(err).Msg("database not reachable, requests will fail until it is")
			}

			srv := server.New(server.Config{Addr: cfg.Server.Addr, APIKey: cfg.Server.APIKey}, query.NewService(db))
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8000)")
	cmd.Flags().String("api-key", "", "API key expected in the X-API-Key header")
	return cmd
}

// NewCanonCommand creates the canon command.
func NewCanonCommand() *cobra.Command {
	var (
		input   string
		trace   bool
		aliases bool
	)

	cmd := &cobra.Command{
		Use:   "canon [text]",
		Short: "Print the canonical form of the statement in text",
		Long: `Extract the SQL statement from text (arguments, --input file or stdin)
and print its canonical form. --trace writes the statement after every
pipeline stage to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args, input)
			if err != nil {
				return err
			}

			stmt, src, err := extract.StatementWithSource(raw)
			if err != nil {
				return err
			}

			var observe canon.Observer
			if trace {
				errOut := cmd.ErrOrStderr()
				_, _ = fmt.Fprintf(errOut, "%-20s %s\n", "extract:"+src.String(), stmt)
				observe = func(stage, sql string) {
					_, _ = fmt.Fprintf(errOut, "%-20s %s\n", stage, sql)
				}
			}

			res, err := canon.Run(stmt, observe)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, res.Statement)
			if aliases && len(res.Aliases) > 0 {
				names := make([]string, 0, len(res.Aliases))
				for name := range res.Aliases {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					_, _ = fmt.Fprintf(out, "-- alias %s => %s\n", name, res.Aliases[name])
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Read text from file (- for stdin)")
	cmd.Flags().BoolVar(&trace, "trace", false, "Print the statement after every stage")
	cmd.Flags().BoolVar(&aliases, "aliases", false, "Print the alias mapping")
	return cmd
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	var (
		input  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "exec [text]",
		Short: "Canonicalize, run and render the statement in text",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig(cmd.Context())
			if format == "" {
				format = cfg.Output
			}
			if err := checkOutputFormat(format); err != nil {
				return err
			}

			raw, err := readInput(cmd, args, input)
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			res, err := query.NewService(db).Run(cmd.Context(), raw, render.FormatJSON)
			if err != nil {
				return errors.New(describeError(err))
			}
			return printRows(cmd.OutOrStdout(), res.Rows, format)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Read text from file (- for stdin)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (table|json|markdown|csv)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return outputFormats, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
