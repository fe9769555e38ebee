package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/tomventa/mdsql/internal/database"
	"github.com/tomventa/mdsql/internal/ollama"
	"github.com/tomventa/mdsql/internal/query"
	"github.com/tomventa/mdsql/internal/utils"
)

const (
	replPrompt   = "mdsql> "
	replContinue = "   ...> "
)

const replHelp = `Commands:
  <sql or markdown>   run the statement (end with ; or close the fence)
  :ask <question>     generate a statement with the assistant and run it
  :schema             print the table definitions
  :format <format>    switch output format (table|json|markdown|csv)
  :help               show this help
  exit, quit, :quit   leave
`

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive shell with a natural language assistant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			if format == "" {
				format = cfg.Output
			}
			if err := checkOutputFormat(format); err != nil {
				return err
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          replPrompt,
				HistoryFile:     filepath.Join(os.TempDir(), "mdsql_history.tmp"),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("failed to initialize readline: %w", err)
			}
			defer func() { _ = rl.Close() }()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			llm := ollama.New(cfg.Ollama)

			fmt.Fprintln(out, "🗄️  mdsql - SQL from markdown, with a natural language assistant")
			printDatabaseInfo(out, db.Info())
			checkOllamaStatus(ctx, out, cfg.Ollama.URL, llm)

			confirm := func(question string) (bool, error) {
				rl.SetPrompt(question)
				defer rl.SetPrompt(replPrompt)
				line, err := rl.Readline()
				if err != nil {
					return false, nil
				}
				return isYes(line), nil
			}

			dialect := "MySQL"
			if db.Driver() == database.DriverSQLite {
				dialect = "SQLite"
			}

			r := &repl{
				db:        db,
				assistant: NewAssistant(llm, db, confirm, out, dialect, cfg.Ollama.MaxAttempts),
				confirm:   confirm,
				out:       out,
				format:    format,
			}
			return r.loop(ctx, rl)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (table|json|markdown|csv)")
	cmd.Flags().String("model", "", "Ollama model used by :ask")
	return cmd
}

type repl struct {
	db        SchemaExecutor
	assistant *Assistant
	confirm   ConfirmFunc
	out       io.Writer
	format    string
}

func (r *repl) loop(ctx context.Context, rl *readline.Instance) error {
	var buf []string
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 && len(buf) == 0 {
				return nil
			}
			buf = buf[:0]
			rl.SetPrompt(replPrompt)
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}

		if len(buf) == 0 && strings.TrimSpace(line) == "" {
			continue
		}
		buf = append(buf, line)
		input := strings.Join(buf, "\n")
		if !isComplete(input) {
			rl.SetPrompt(replContinue)
			continue
		}
		buf = buf[:0]
		rl.SetPrompt(replPrompt)

		if r.handle(ctx, input) {
			return nil
		}
	}
}

// isComplete reports whether input can be run: a shell command, a statement
// ending in ";" or a markdown block with every fence closed.
func isComplete(input string) bool {
	s := strings.TrimSpace(input)
	if strings.HasPrefix(s, ":") || isQuit(s) {
		return true
	}
	if fences := strings.Count(s, "```"); fences > 0 {
		return fences%2 == 0
	}
	return strings.HasSuffix(s, ";")
}

func isQuit(s string) bool {
	switch strings.ToLower(s) {
	case "exit", "quit", ":quit":
		return true
	}
	return false
}

func isYes(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "y" || a == "yes"
}

// handle runs one complete input and reports whether the shell should exit.
func (r *repl) handle(ctx context.Context, input string) bool {
	s := strings.TrimSpace(input)
	if isQuit(s) {
		fmt.Fprintln(r.out, "👋 Goodbye!")
		return true
	}

	cmd, arg, _ := strings.Cut(s, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":help":
		fmt.Fprint(r.out, replHelp)
	case ":schema":
		schema, err := r.db.Schema(ctx)
		if err != nil {
			r.printError(err)
			return false
		}
		fmt.Fprint(r.out, schema)
	case ":format":
		if err := checkOutputFormat(arg); err != nil {
			r.printError(err)
			return false
		}
		r.format = arg
		fmt.Fprintf(r.out, "output format: %s\n", arg)
	case ":ask":
		if arg == "" {
			r.printError(errors.New("usage: :ask <question>"))
			return false
		}
		if err := r.assistant.Ask(ctx, arg, r.format); err != nil {
			r.printError(err)
		}
	default:
		if strings.HasPrefix(cmd, ":") {
			r.printError(fmt.Errorf("unknown command %s (try :help)", cmd))
			return false
		}
		r.run(ctx, s)
	}
	return false
}

func (r *repl) run(ctx context.Context, raw string) {
	// the terminator belongs to the shell, not the statement
	p, err := query.Prepare(strings.TrimSuffix(raw, ";"))
	if err != nil {
		r.printError(err)
		return
	}

	if !utils.IsReadOnlyQuery(p.Statement) {
		fmt.Fprintf(r.out, "📝 %s\n", p.Statement)
		ok, err := r.confirm("❓ Execute this query? (y/N): ")
		if err != nil {
			r.printError(err)
			return
		}
		if !ok {
			fmt.Fprintf(r.out, "❌ Query execution cancelled.\n\n")
			return
		}
	}

	rows, err := r.db.Execute(ctx, p.Statement)
	if err != nil {
		r.printError(err)
		return
	}
	if err := printRows(r.out, rows, r.format); err != nil {
		r.printError(err)
	}
}

func (r *repl) printError(err error) {
	fmt.Fprintf(r.out, "❌ Error: %s\n\n", describeError(err))
}
