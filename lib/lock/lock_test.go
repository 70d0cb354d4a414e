package lock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLocker(t *testing.T) *Locker {
	return New(filepath.Join(t.TempDir(), ".lock"), 3, 5*time.Millisecond)
}

func TestAcquireRelease(t *testing.T) {
	l := testLocker(t)
	lk, err := l.Acquire()
	require.NoError(t, err)
	_, err = os.Stat(l.path)
	require.NoError(t, err, "marker should exist while held")

	require.NoError(t, lk.Release())
	_, err = os.Stat(l.path)
	assert.True(t, os.IsNotExist(err), "marker should be gone after release")
}

func TestAcquireWhileHeld(t *testing.T) {
	l := testLocker(t)
	lk, err := l.Acquire()
	require.NoError(t, err)

	// probe must keep failing until the holder releases
	_, err = l.Acquire()
	require.ErrorIs(t, err, ErrUnavailable)

	// the holder's marker must survive the failed probe
	_, err = os.Stat(l.path)
	require.NoError(t, err)

	require.NoError(t, lk.Release())
	lk2, err := l.Acquire()
	require.NoError(t, err)
	lk2.Release()
}

func TestFailedAcquireLeavesNoMarker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".lock")
	l := New(path, 2, time.Millisecond)
	lk, err := l.Acquire()
	require.NoError(t, err)
	defer lk.Release()

	_, err = l.Acquire()
	require.ErrorIs(t, err, ErrUnavailable)

	// only the holder's marker may exist, the failed acquire added nothing
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, ents, 1)
}

func TestAcquireRetryBudget(t *testing.T) {
	interval := 20 * time.Millisecond
	l := New(filepath.Join(t.TempDir(), ".lock"), 3, interval)
	lk, err := l.Acquire()
	require.NoError(t, err)
	defer lk.Release()

	start := time.Now()
	_, err = l.Acquire()
	require.ErrorIs(t, err, ErrUnavailable)
	// 3 attempts means 2 waits between them
	assert.GreaterOrEqual(t, time.Since(start), 2*interval)
	assert.Less(t, time.Since(start), 10*interval)
}

func TestWithReleasesOnError(t *testing.T) {
	l := testLocker(t)
	boom := errors.New("boom")
	err := l.With(func() error {
		_, serr := os.Stat(l.path)
		require.NoError(t, serr, "lock held inside With")
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = os.Stat(l.path)
	assert.True(t, os.IsNotExist(err), "With must release even when fn fails")
}

func TestStale(t *testing.T) {
	l := testLocker(t)
	lk, err := l.Acquire()
	require.NoError(t, err)
	defer lk.Release()

	pid, age, err := l.Stale()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	assert.GreaterOrEqual(t, age, time.Duration(0))
}

func TestStaleMalformed(t *testing.T) {
	l := testLocker(t)
	require.NoError(t, os.WriteFile(l.path, []byte("garbage"), 0600))
	_, _, err := l.Stale()
	assert.Error(t, err)
}
