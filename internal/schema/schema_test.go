package schema

import (
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	s, ok := Lookup("emails")
	require.True(t, ok)
	assert.Equal(t, "emails", s.Table)
	assert.Equal(t, "email", s.MainColumn)

	_, ok = Lookup("no-such-schema")
	assert.False(t, ok)
}

func TestLookupDefault(t *testing.T) {
	_, ok := Lookup(DefaultID)
	assert.True(t, ok)
}

func TestRegistryIntegrity(t *testing.T) {
	seen := make(map[string]string)
	for _, s := range All() {
		require.NotEmpty(t, s.ID)
		require.NotEmpty(t, s.Table)
		require.NotEmpty(t, s.MainColumn)
		require.NotEmpty(t, s.CreateSQL)
		require.NotEmpty(t, s.ExtractPattern)
		require.NotEmpty(t, s.ResultExpr)
		require.NotEmpty(t, s.Filters, "schema %s has no filters", s.ID)

		// Highlight patterns may use PCRE features, so they must compile
		// under regexp2, which is what the highlighter uses.
		_, err := regexp2.Compile(s.HighlightPattern, regexp2.IgnoreCase)
		require.NoError(t, err, "schema %s highlight pattern", s.ID)

		// Flags are registered on a single search command, so they must be
		// globally unique across schemas.
		for _, f := range s.Filters {
			require.NotEmpty(t, f.Flag)
			if owner, dup := seen[f.Flag]; dup {
				t.Fatalf("flag --%s registered by both %s and %s", f.Flag, owner, s.ID)
			}
			seen[f.Flag] = s.ID
		}
	}
}

func TestResolveEmail(t *testing.T) {
	f := Filter{Kind: FilterEmail}

	pred, err := f.Resolve("a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "domain = {domain:String} AND user = {user:String}", pred.Expr)
	assert.Equal(t, map[string]string{"domain": "b.com", "user": "a"}, pred.Params)

	// Only the first '@' splits; the remainder belongs to the domain side.
	pred, err = f.Resolve("a@b@c")
	require.NoError(t, err)
	assert.Equal(t, "b@c", pred.Params["domain"])

	_, err = f.Resolve("not-an-email")
	assert.Error(t, err)
}

func TestResolveExact(t *testing.T) {
	f := Filter{Kind: FilterExact, Column: "ip"}
	pred, err := f.Resolve("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "ip = {val:String}", pred.Expr)
	assert.Equal(t, "10.0.0.1", pred.Params["val"])
}

func TestResolveWildcard(t *testing.T) {
	f := Filter{Kind: FilterWildcard, Column: "domain"}
	pred, err := f.Resolve("%.com")
	require.NoError(t, err)
	assert.Equal(t, "domain LIKE {val:String}", pred.Expr)
	assert.Equal(t, "%.com", pred.Params["val"])
}
