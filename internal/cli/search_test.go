package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stelin41/super-fast-dumpster-diver/internal/schema"
)

func TestSelectFilterFirstWins(t *testing.T) {
	values := map[string]string{
		"email-domain": "example.com",
		"uuid":         "0000-",
	}
	sch, f, v, ok := selectFilter(func(flag string) string { return values[flag] })
	require.True(t, ok)

	// --email-domain belongs to the emails schema, which precedes uuids in
	// the registry, so it must win even though both flags are set.
	assert.Equal(t, "emails", sch.ID)
	assert.Equal(t, "email-domain", f.Flag)
	assert.Equal(t, "example.com", v)
}

func TestSelectFilterNoneSet(t *testing.T) {
	_, _, _, ok := selectFilter(func(string) string { return "" })
	assert.False(t, ok)
}

func TestRunSearchRejectsMalformedValueBeforeDialing(t *testing.T) {
	require.NoError(t, searchCmd.Flags().Set("email", "no-at-sign"))
	t.Cleanup(func() { _ = searchCmd.Flags().Set("email", "") })

	// The store endpoint is unreachable in tests; a connection error here
	// would mean the input was not validated first.
	err := runSearch(searchCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid value for --email")
}

func TestSearchFlagsRegistered(t *testing.T) {
	for _, sch := range schema.All() {
		for _, f := range sch.Filters {
			assert.NotNil(t, searchCmd.Flags().Lookup(f.Flag), "flag --%s", f.Flag)
		}
	}
}
