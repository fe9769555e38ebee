package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tomventa/mdsql/internal/database"
	"github.com/tomventa/mdsql/internal/query"
	"github.com/tomventa/mdsql/internal/utils"
)

// Generator produces text for a prompt. *ollama.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SchemaExecutor runs statements and describes the tables they can use.
type SchemaExecutor interface {
	query.Executor
	Schema(ctx context.Context) (string, error)
}

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(question string) (bool, error)

// Assistant turns a natural language question into a statement, runs it and
// feeds engine errors back to the model until a statement succeeds.
type Assistant struct {
	gen         Generator
	db          SchemaExecutor
	confirm     ConfirmFunc
	out         io.Writer
	dialect     string
	maxAttempts int
}

// NewAssistant creates an Assistant. Dialect names the SQL flavour in prompts.
func NewAssistant(gen Generator, db SchemaExecutor, confirm ConfirmFunc, out io.Writer, dialect string, maxAttempts int) *Assistant {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Assistant{gen: gen, db: db, confirm: confirm, out: out, dialect: dialect, maxAttempts: maxAttempts}
}

const firstPrompt = `Given this %s database schema:

%s

Convert this natural language query to a SQL SELECT statement:
"%s"

Requirements:
- Only return the SQL statement, nothing else
- Use proper %s syntax
- Only generate READ queries (SELECT statements)
- Do not include any explanations

SQL:`

const retryPrompt = `Given this %s database schema:

%s

I tried to convert this natural language query to SQL:
"%s"

The previous SQL query was:
%s

But it failed with this error:
%s

Please fix the SQL query to resolve this error.

Requirements:
- Only return the corrected SQL statement, nothing else
- Use proper %s syntax
- Only generate READ queries (SELECT statements)
- Do not include any explanations

Corrected SQL:`

// Ask runs the generate, confirm and execute loop for question and prints the
// rows in format.
func (a *Assistant) Ask(ctx context.Context, question, format string) error {
	schema, err := a.db.Schema(ctx)
	if err != nil {
		return err
	}

	var stmt, lastError string
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		fmt.Fprintf(a.out, "🤖 Generating SQL query (attempt %d/%d)...\n", attempt, a.maxAttempts)

		prompt := fmt.Sprintf(firstPrompt, a.dialect, schema, question, a.dialect)
		if attempt > 1 {
			prompt = fmt.Sprintf(retryPrompt, a.dialect, schema, question, stmt, lastError, a.dialect)
		}

		generated, err := a.gen.Generate(ctx, prompt)
		if err != nil {
			return fmt.Errorf("failed to query Ollama on attempt %d: %w", attempt, err)
		}

		p, err := query.Prepare(generated)
		if err != nil {
			stmt, lastError = generated, "the response did not contain a SQL statement"
			fmt.Fprintf(a.out, "❌ %s\n", lastError)
			continue
		}
		stmt = p.Statement
		fmt.Fprintf(a.out, "📝 Generated SQL: %s\n\n", stmt)

		if attempt == 1 || !utils.IsReadOnlyQuery(stmt) {
			ok, err := a.confirm("❓ Execute this query? (y/N): ")
			if err != nil {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			if !ok {
				fmt.Fprintf(a.out, "❌ Query execution cancelled.\n\n")
				return nil
			}
		} else {
			fmt.Fprintln(a.out, "🔄 Auto-executing read-only retry query...")
		}

		rows, err := a.db.Execute(ctx, stmt)
		if err == nil {
			return printRows(a.out, rows, format)
		}

		var connErr *database.ConnectionError
		if errors.As(err, &connErr) {
			return err
		}

		lastError = err.Error()
		fmt.Fprintf(a.out, "❌ Query failed: %v\n", err)
		if attempt < a.maxAttempts {
			fmt.Fprintf(a.out, "🔄 Trying to auto-fix the issue...\n\n")
		}
	}

	return fmt.Errorf("failed to generate working SQL after %d attempts. Last error: %s", a.maxAttempts, lastError)
}
