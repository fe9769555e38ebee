package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tomventa/mdsql/internal/database"
	"github.com/tomventa/mdsql/internal/render"
	"github.com/tomventa/mdsql/internal/tableprint"
)

// outputFormats are the values accepted by --format.
var outputFormats = []string{"table", "json", "markdown", "md", "csv"}

func checkOutputFormat(format string) error {
	for _, f := range outputFormats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (want one of %s)", format, strings.Join(outputFormats, ", "))
}

// readInput returns the text to work on: the positional arguments, the file
// named by path ("-" for stdin), or piped stdin.
func readInput(cmd *cobra.Command, args []string, path string) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case path == "-":
		return readAll(cmd.InOrStdin())
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(b), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.New("no input: pass the text as an argument, with --input or on stdin")
	}
	return readAll(in)
}

func readAll(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(b), nil
}

// printRows writes rs to w in the given output format.
func printRows(w io.Writer, rs render.ResultSet, format string) error {
	if format == "table" || format == "" {
		tableprint.PrintTable(w, rs)
		return nil
	}

	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}
	data, err := render.Render(rs, f)
	if err != nil {
		return err
	}
	if s, ok := data.(string); ok {
		_, err = io.WriteString(w, s)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// describeError adds the executed statement and engine codes to execution
// errors for terminal output.
func describeError(err error) string {
	var execErr *database.ExecutionError
	if !errors.As(err, &execErr) {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString(execErr.Message)
	if execErr.SQLState != "" {
		fmt.Fprintf(&b, "\n  sql state: %s", execErr.SQLState)
	}
	fmt.Fprintf(&b, "\n  executed:  %s", execErr.Statement)
	return b.String()
}

// ModelPinger is an assistant backend with a reachability check.
type ModelPinger interface {
	Ping(ctx context.Context) error
	Model() string
}

// printDatabaseInfo prints parsed database connection info
func printDatabaseInfo(w io.Writer, info database.Info) {
	fmt.Fprintf(w, "\n📦 Database connection info:\n")
	fmt.Fprintf(w, "  Driver:   %s\n", info.Driver)
	fmt.Fprintf(w, "  User:     %s\n", info.User)
	fmt.Fprintf(w, "  Host:     %s\n", info.Host)
	fmt.Fprintf(w, "  Port:     %s\n", info.Port)
	fmt.Fprintf(w, "  Database: %s\n\n", info.Database)
}

// checkOllamaStatus checks if Ollama is running and prints status
func checkOllamaStatus(ctx context.Context, w io.Writer, url string, p ModelPinger) {
	if err := p.Ping(ctx); err != nil {
		fmt.Fprintf(w, "⚠️  Ollama status: %v\n\n", err)
		return
	}
	fmt.Fprintf(w, "🤖 Ollama status: running at %s (model %s)\n\n", url, p.Model())
}
