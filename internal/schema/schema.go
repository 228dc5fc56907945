// Package schema is the static registry of artifact kinds: what table each
// kind lives in, what pattern extracts it, how results are formatted, and
// which query filters the search CLI exposes for it.
package schema

import (
	"fmt"
	"strings"
)

// FilterKind selects how a filter value is turned into a predicate.
type FilterKind int

const (
	// FilterExact matches a column equal to the supplied value.
	FilterExact FilterKind = iota
	// FilterWildcard matches a column with a LIKE pattern (%, _).
	FilterWildcard
	// FilterEmail splits user@domain and matches both decomposed columns.
	FilterEmail
)

// Filter is one named query selector for a schema. Resolve turns a
// user-supplied value into a parameterized predicate; it never interpolates
// the value into the expression itself.
type Filter struct {
	Name   string // stable identifier, e.g. "domain_wildcard"
	Flag   string // CLI flag name, e.g. "email-domain-wildcard"
	Help   string
	Kind   FilterKind
	Column string // predicate column for Exact/Wildcard kinds
}

// Predicate is a WHERE-clause fragment with ClickHouse server-side parameter
// placeholders ({name:String}) and their values.
type Predicate struct {
	Expr   string
	Params map[string]string
}

// Resolve builds the predicate for a value. A value the filter cannot parse
// (e.g. an email without '@') is a user error and fails before any query
// executes.
func (f Filter) Resolve(value string) (Predicate, error) {
	switch f.Kind {
	case FilterEmail:
		user, domain, ok := strings.Cut(value, "@")
		if !ok {
			return Predicate{}, fmt.Errorf("invalid email %q: missing '@'", value)
		}
		return Predicate{
			Expr:   "domain = {domain:String} AND user = {user:String}",
			Params: map[string]string{"domain": domain, "user": user},
		}, nil
	case FilterExact:
		return Predicate{
			Expr:   f.Column + " = {val:String}",
			Params: map[string]string{"val": value},
		}, nil
	case FilterWildcard:
		return Predicate{
			Expr:   f.Column + " LIKE {val:String}",
			Params: map[string]string{"val": value},
		}, nil
	default:
		return Predicate{}, fmt.Errorf("unknown filter kind %d", f.Kind)
	}
}

// Schema is the immutable configuration for one artifact kind. Read-only
// after process start.
type Schema struct {
	ID         string
	Table      string
	MainColumn string
	CreateSQL  string
	// ExtractPattern is PCRE, handed to the external extractor (grep -P).
	ExtractPattern string
	// ResultExpr is the SELECT expression producing the displayed match.
	ResultExpr string
	// HighlightPattern is re-applied case-insensitively to context windows.
	// May use PCRE features (lookbehind), so it is compiled with regexp2,
	// not the stdlib regexp package.
	HighlightPattern string
	Filters          []Filter
}

// DefaultID is the schema indexed when none is named.
const DefaultID = "emails"

var registry = []*Schema{emails, domains, ips, uuids}

// All returns every registered schema in stable order. Search-flag
// registration and first-match dispatch both rely on this order.
func All() []*Schema {
	return registry
}

// Lookup finds a schema by id.
func Lookup(id string) (*Schema, bool) {
	for _, s := range registry {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}
