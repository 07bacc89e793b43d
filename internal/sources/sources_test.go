package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	text := `# monitored pages
GitHub | https://www.githubstatus.com/

Cloudflare | https://www.cloudflarestatus.com
broken line without separator
NoScheme | ftp://example.com
 | https://no-name.example.com
`
	entries := Parse(text)

	require.Len(t, entries, 2)
	assert.Equal(t, "GitHub", entries[0].Name)
	assert.Equal(t, "https://www.githubstatus.com", entries[0].URL)
	assert.Equal(t, "Cloudflare", entries[1].Name)
}

func TestParseStripsTrailingSlashes(t *testing.T) {
	entries := Parse("X | https://status.example.com///")
	require.Len(t, entries, 1)
	assert.Equal(t, "https://status.example.com", entries[0].URL)
}

func TestRoundTrip(t *testing.T) {
	text := "GitHub | https://www.githubstatus.com\nLinear | https://status.linear.app\n"
	reg := writeRegistry(t, text)
	require.NoError(t, reg.Load())

	first := reg.List()
	require.Len(t, first, 2)

	reparsed := Parse(Serialize(first))
	require.Len(t, reparsed, 2)
	assert.Equal(t, "GitHub", reparsed[0].Name)
	assert.Equal(t, "https://www.githubstatus.com", reparsed[0].URL)
	assert.Equal(t, "Linear", reparsed[1].Name)
	assert.Equal(t, "https://status.linear.app", reparsed[1].URL)
}

func TestRegistryStableIdentity(t *testing.T) {
	reg := writeRegistry(t, "GitHub | https://www.githubstatus.com\n")
	require.NoError(t, reg.Load())
	id := reg.List()[0].ID
	require.NotEmpty(t, id)

	// Edit the name but keep the URL: identity survives.
	rewrite(t, reg, "GitHub Inc | https://www.githubstatus.com\n")
	added, removed, err := reg.Reload()
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.Empty(t, removed)
	assert.Equal(t, id, reg.List()[0].ID)
	assert.Equal(t, "GitHub Inc", reg.List()[0].Name)
}

func TestRegistryReloadDiff(t *testing.T) {
	reg := writeRegistry(t, "A | https://a.example.com\nB | https://b.example.com\n")
	require.NoError(t, reg.Load())

	rewrite(t, reg, "B | https://b.example.com\nC | https://c.example.com\n")
	added, removed, err := reg.Reload()
	require.NoError(t, err)

	require.Len(t, added, 1)
	assert.Equal(t, "C", added[0].Name)
	require.Len(t, removed, 1)
	assert.Equal(t, "A", removed[0].Name)
	assert.Len(t, reg.List(), 2)
}

func TestRegistryMissingFile(t *testing.T) {
	reg := NewRegistry(filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, reg.Load())
	assert.Empty(t, reg.List())
}

func TestRegistryGet(t *testing.T) {
	reg := writeRegistry(t, "A | https://a.example.com\n")
	require.NoError(t, reg.Load())

	src, ok := reg.Get(reg.List()[0].ID)
	require.True(t, ok)
	assert.Equal(t, "A", src.Name)

	_, ok = reg.Get("nope")
	assert.False(t, ok)
}

func TestRegistryLookup(t *testing.T) {
	reg := writeRegistry(t, "A | https://a.example.com\n")
	require.NoError(t, reg.Load())

	src, err := reg.Lookup(reg.List()[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "A", src.Name)

	_, err = reg.Lookup("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func writeRegistry(t *testing.T, content string) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return NewRegistry(path)
}

func rewrite(t *testing.T, reg *Registry, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(reg.path, []byte(content), 0o600))
}
