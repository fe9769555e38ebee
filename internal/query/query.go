// Package query runs the full pipeline for one request: extract the statement
// from raw text, canonicalize it, execute it and render the rows.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tomventa/mdsql/internal/canon"
	"github.com/tomventa/mdsql/internal/extract"
	"github.com/tomventa/mdsql/internal/logger"
	"github.com/tomventa/mdsql/internal/render"
)

// Executor runs a canonical statement. *database.Database satisfies it.
type Executor interface {
	Execute(ctx context.Context, stmt string) (render.ResultSet, error)
}

// Prepared is a statement ready for execution.
type Prepared struct {
	Extracted string
	Source    extract.Source
	Statement string
	Aliases   canon.AliasMapping
}

// Prepare extracts and canonicalizes the statement in raw. It returns
// extract.ErrNoStatement when raw holds no statement.
func Prepare(raw string) (Prepared, error) {
	stmt, src, err := extract.StatementWithSource(raw)
	if err != nil {
		return Prepared{}, err
	}
	res, err := canon.Run(stmt, nil)
	if err != nil {
		return Prepared{}, err
	}
	return Prepared{
		Extracted: stmt,
		Source:    src,
		Statement: res.Statement,
		Aliases:   res.Aliases,
	}, nil
}

// Result is the outcome of Service.Run.
type Result struct {
	Prepared
	Rows   render.ResultSet
	Format render.Format
	// Data is the rendered rows: a ResultSet for JSON, a string otherwise.
	Data any
}

// Service runs statements found in free-form text.
type Service struct {
	exec Executor
}

// NewService creates a Service executing through exec.
func NewService(exec Executor) *Service {
	return &Service{exec: exec}
}

// Run prepares raw, executes the canonical statement and renders the rows in
// format. Errors from the executor are returned unwrapped so callers can
// classify them with errors.As.
func (s *Service) Run(ctx context.Context, raw string, format render.Format) (*Result, error) {
	log := logger.FromContext(ctx)

	p, err := Prepare(raw)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("source", p.Source.String()).
		Str("extracted", p.Extracted).
		Str("statement", p.Statement).
		Msg("statement prepared")

	start := time.Now()
	rows, err := s.exec.Execute(ctx, p.Statement)
	if err != nil {
		log.Debug().Err(err).Str("statement", p.Statement).Msg("statement failed")
		return nil, err
	}
	log.Debug().Int("rows", len(rows)).Dur("duration", time.Since(start)).Msg("statement executed")

	data, err := render.Render(rows, format)
	if err != nil {
		return nil, fmt.Errorf("render result: %w", err)
	}
	return &Result{Prepared: p, Rows: rows, Format: format, Data: data}, nil
}
