package extfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/extfs-project/extfs"
	"github.com/extfs-project/extfs/internal/geometry"
	fixtures "github.com/extfs-project/extfs/testing"
)

func newSession(t *testing.T) *extfs.Session {
	t.Helper()

	geom, err := geometry.Preset("tiny")
	require.NoError(t, err)

	stream := fixtures.NewMemoryImage(geom)
	require.NoError(t, extfs.Format(stream, geom))

	session, err := extfs.Open(stream)
	require.NoError(t, err)
	return session
}

func TestFormatAndOpenRoundTrip(t *testing.T) {
	session := newSession(t)
	require.Equal(t, "/", session.Getwd())

	stat := session.Stat()
	require.NotZero(t, stat.TotalBlocks)
	require.Equal(t, uint32(1), stat.UsedDirs)
}

func TestChdirUpAndDown(t *testing.T) {
	session := newSession(t)

	_, err := session.Mkdir("a", 0o755)
	require.NoError(t, err)
	require.NoError(t, session.Chdir("a"))
	require.Equal(t, "/a", session.Getwd())

	require.NoError(t, session.Chdir(".."))
	require.Equal(t, "/", session.Getwd())
}

func TestChdirIntoAFileFails(t *testing.T) {
	session := newSession(t)

	_, err := session.CreateFile("f", "txt", 0o644, []byte("x"))
	require.NoError(t, err)

	require.Error(t, session.Chdir("f.txt"))
}

// S5: mkdir("d", root); cf("x", "X", d); mkdir("e", d); rm -d d -> root has
// only "." and "..", used_dirs_count back to 1.
func TestRemoveDirectoryRecursively(t *testing.T) {
	session := newSession(t)

	_, err := session.Mkdir("d", 0o755)
	require.NoError(t, err)
	require.NoError(t, session.Chdir("d"))
	_, err = session.CreateFile("x", "", 0o644, []byte("X"))
	require.NoError(t, err)
	_, err = session.Mkdir("e", 0o755)
	require.NoError(t, err)
	require.NoError(t, session.Chdir(".."))

	require.NoError(t, session.Rmdir("d", true))

	entries, err := session.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, uint32(1), session.Stat().UsedDirs)
}

func TestRemoveNonEmptyDirectoryWithoutRecursiveFails(t *testing.T) {
	session := newSession(t)

	_, err := session.Mkdir("d", 0o755)
	require.NoError(t, err)
	require.NoError(t, session.Chdir("d"))
	_, err = session.CreateFile("x", "", 0o644, []byte("X"))
	require.NoError(t, err)
	require.NoError(t, session.Chdir(".."))

	require.Error(t, session.Rmdir("d", false))
}

// S6: cf("t","AAA",root); wf(-a, "t", "BBB"); rf("t") -> data = "AAABBB".
func TestAppendThenRead(t *testing.T) {
	session := newSession(t)

	_, err := session.CreateFile("t", "", 0o644, []byte("AAA"))
	require.NoError(t, err)
	require.NoError(t, session.WriteFile("t", []byte("BBB"), extfs.WriteAppend))

	payload, err := session.ReadFile("t")
	require.NoError(t, err)
	require.Equal(t, "AAABBB", string(payload.Data))
}

func TestCheckConsistencyOnFreshSession(t *testing.T) {
	session := newSession(t)

	_, err := session.Mkdir("a", 0o755)
	require.NoError(t, err)
	_, err = session.CreateFile("f", "txt", 0o644, []byte("hello world"))
	require.NoError(t, err)

	report, err := session.CheckConsistency()
	require.NoError(t, err)
	require.True(t, report.OK(), "%v", report.Problems)
}
