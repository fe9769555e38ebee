// Package canon rewrites an extracted SQL statement into its canonical form.
//
// Canonicalization is an ordered list of pure text stages. The order is part
// of the contract: escapes are resolved before spacing, whitespace inside
// quoted tokens is trimmed before aliases are detected, and GROUP BY is
// reformatted before ORDER BY because its clause ends where ORDER BY begins.
// Spacing stages never touch text inside quotes or comments.
package canon

import (
	"strings"

	"github.com/tomventa/mdsql/internal/extract"
)

// Stage is one named step of the canonicalization pipeline.
type Stage struct {
	Name  string
	apply func(sql string, aliases AliasMapping) string
}

func textStage(name string, fn func(string) string) Stage {
	return Stage{Name: name, apply: func(sql string, _ AliasMapping) string { return fn(sql) }}
}

var pipeline = []Stage{
	// lexical
	textStage("unescape", unescapeStatement),
	textStage("escaped-quotes", unescapeQuotes),
	textStage("comments", blockLineComments),
	textStage("commas", spaceCommas),
	textStage("date-format-percent", fixDateFormatPercent),
	textStage("date-format-call", tightenDateFormat),
	textStage("keywords", spaceKeywords),
	textStage("operators", spaceOperators),
	textStage("whitespace", collapseWhitespace),
	textStage("parentheses", tightenParens),
	textStage("dots", tightenDots),
	// quoting and aliases
	textStage("quoted-tokens", trimQuotedTokens),
	{Name: "aliases", apply: normalizeAliases},
	// clauses
	textStage("group-by", reformatGroupBy),
	textStage("order-by", reformatOrderBy),
	textStage("having", spaceHaving),
}

// Stages returns the names of the pipeline stages in execution order.
func Stages() []string {
	names := make([]string, len(pipeline))
	for i, st := range pipeline {
		names[i] = st.Name
	}
	return names
}

// Result is the outcome of one canonicalization pass.
type Result struct {
	Statement string
	Aliases   AliasMapping
}

// Observer receives the statement text after each stage.
type Observer func(stage, sql string)

// Canonicalize returns the canonical form of stmt. An empty or blank
// statement yields extract.ErrNoStatement.
func Canonicalize(stmt string) (string, error) {
	res, err := Run(stmt, nil)
	if err != nil {
		return "", err
	}
	return res.Statement, nil
}

// Run canonicalizes stmt, calling observe (when non-nil) after every stage.
// The alias mapping is created for this pass only.
func Run(stmt string, observe Observer) (Result, error) {
	sql := strings.TrimSpace(stmt)
	if sql == "" {
		return Result{}, extract.ErrNoStatement
	}

	aliases := make(AliasMapping)
	for _, st := range pipeline {
		sql = st.apply(sql, aliases)
		if observe != nil {
			observe(st.Name, sql)
		}
	}

	sql = strings.TrimSpace(sql)
	if sql == "" {
		return Result{}, extract.ErrNoStatement
	}
	return Result{Statement: sql, Aliases: aliases}, nil
}
