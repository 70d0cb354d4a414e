package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTail(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	require.NotNil(t, j)
	defer j.Close()

	j.Record("msg-1", EvEnqueued, "-t a@b")
	j.Record("msg-1", EvSent, "")
	j.Record("msg-2", EvSendFailed, "exit status 1")

	ents, err := j.Tail(2)
	require.NoError(t, err)
	require.Len(t, ents, 2)
	// newest first
	assert.Equal(t, EvSendFailed, ents[0].Event)
	assert.Equal(t, "msg-2", ents[0].MessageId)
	assert.Equal(t, EvSent, ents[1].Event)

	ents, err = j.Tail(10)
	require.NoError(t, err)
	assert.Len(t, ents, 3)
}

func TestDisabled(t *testing.T) {
	j, err := Open("")
	require.NoError(t, err)
	require.Nil(t, j)

	// a nil journal is a no-op recorder
	j.Record("msg", EvEnqueued, "")
	ents, err := j.Tail(5)
	require.NoError(t, err)
	assert.Empty(t, ents)
	assert.NoError(t, j.Close())
}
