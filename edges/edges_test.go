package edges

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/sgnd/internal/logger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "edges.db"), logger.New(os.Stdout, logger.ErrorLevel))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertIdempotent(t *testing.T) {
	s := openTestStore(t)

	inserted, err := s.Insert("a", "b", string(AppliesTo), nil)
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = s.Insert("a", "b", string(AppliesTo), nil)
	require.NoError(t, err)
	require.False(t, inserted)

	out, err := s.ListOutgoing("a", string(AppliesTo))
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestDistinctTypeIsSeparateEdge(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Insert("a", "b", string(AppliesTo), nil)
	require.NoError(t, err)
	inserted, err := s.Insert("a", "b", string(Verifies), nil)
	require.NoError(t, err)
	require.True(t, inserted)

	out, err := s.ListOutgoing("a", "")
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestListIncoming(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Insert("a", "b", string(Supersedes), nil)
	require.NoError(t, err)

	in, err := s.ListIncoming("b", "")
	require.NoError(t, err)
	require.Len(t, in, 1)
	require.Equal(t, "a", in[0].Src)
}

func TestGraphBFSRespectsDepthAndCycles(t *testing.T) {
	s := openTestStore(t)
	must := func(b bool, err error) {
		require.NoError(t, err)
		require.True(t, b)
	}
	must(s.Insert("a", "b", string(AppliesTo), nil))
	must(s.Insert("b", "c", string(AppliesTo), nil))
	must(s.Insert("c", "a", string(AppliesTo), nil)) // cycle back to start

	edgesAtDepth1, err := s.Graph("a", 1)
	require.NoError(t, err)
	require.Len(t, edgesAtDepth1, 1)

	edgesAtDepth4, err := s.Graph("a", 4)
	require.NoError(t, err)
	require.Len(t, edgesAtDepth4, 3) // a->b, b->c, c->a; c->a's dst (a) already visited, stops expansion

	clamped, err := s.Graph("a", 100)
	require.NoError(t, err)
	require.Equal(t, edgesAtDepth4, clamped)
}

func TestAllowedEdgeTypes(t *testing.T) {
	require.True(t, Allowed("applies_to"))
	require.True(t, Allowed("verifies"))
	require.True(t, Allowed("supersedes"))
	require.True(t, Allowed("conflicts_with"))
	require.False(t, Allowed("unknown_type"))
}
