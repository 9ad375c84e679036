package trust

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTrustFile(t *testing.T, dir string, mode Mode, allow []string) string {
	t.Helper()
	path := filepath.Join(dir, "trust.json")
	data := `{"mode":"` + string(mode) + `","allow":[`
	for i, a := range allow {
		if i > 0 {
			data += ","
		}
		data += `"` + a + `"`
	}
	data += `]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestEnforceRejectsUnlistedKey(t *testing.T) {
	dir := t.TempDir()
	path := writeTrustFile(t, dir, ModeEnforce, nil)

	p, err := NewPolicy(path)
	require.NoError(t, err)

	allow, trusted, reason := p.Gate("kid-a")
	require.False(t, allow)
	require.False(t, trusted)
	require.Equal(t, "key_not_allowlisted", reason)
}

func TestEnforceAllowsListedKeyAfterReload(t *testing.T) {
	dir := t.TempDir()
	path := writeTrustFile(t, dir, ModeEnforce, nil)

	p, err := NewPolicy(path)
	require.NoError(t, err)

	allow, trusted, _ := p.Gate("kid-a")
	require.False(t, allow)
	require.False(t, trusted)

	writeTrustFile(t, dir, ModeEnforce, []string{"kid-a"})
	require.NoError(t, p.Reload())

	allow, trusted, _ = p.Gate("kid-a")
	require.True(t, allow)
	require.True(t, trusted)
}

func TestWarnModeProceedsUntrusted(t *testing.T) {
	dir := t.TempDir()
	path := writeTrustFile(t, dir, ModeWarn, nil)

	p, err := NewPolicy(path)
	require.NoError(t, err)

	allow, trusted, reason := p.Gate("kid-b")
	require.True(t, allow)
	require.False(t, trusted)
	require.Equal(t, "key_not_allowlisted", reason)
}

func TestBootstrapCreatesFileOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trust.json")

	require.NoError(t, Bootstrap(path, ModeWarn))
	info1, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, Bootstrap(path, ModeEnforce))
	info2, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, info1.ModTime(), info2.ModTime())
}
