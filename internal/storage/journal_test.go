package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/annel0/adventure-world/internal/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(i int, eventType string) *eventbus.Envelope {
	return &eventbus.Envelope{
		ID:        fmt.Sprintf("ev-%02d", i),
		Timestamp: time.Unix(1700000000, int64(i)*int64(time.Millisecond)),
		Source:    "worldgen",
		EventType: eventType,
		Version:   1,
		Payload:   []byte(fmt.Sprintf(`{"n":%d}`, i)),
	}
}

func openTestJournal(t *testing.T, dir string) *Journal {
	t.Helper()
	j, err := OpenJournal(dir)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecentNewestFirst(t *testing.T) {
	j := openTestJournal(t, "")

	types := []string{"WorldGenerated", "WorldExpanded", "WorldExpanded", "WorldRegenerated", "WorldExpanded"}
	for i, typ := range types {
		require.NoError(t, j.Append(envelope(i, typ)))
	}

	n, err := j.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	recent, err := j.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "ev-04", recent[0].ID)
	assert.Equal(t, "ev-03", recent[1].ID)

	expanded, err := j.Recent(0, "WorldExpanded")
	require.NoError(t, err)
	require.Len(t, expanded, 3)
	assert.Equal(t, []string{"ev-04", "ev-02", "ev-01"}, []string{expanded[0].ID, expanded[1].ID, expanded[2].ID})
	assert.JSONEq(t, `{"n":4}`, string(expanded[0].Payload))
}

func TestJournal_PersistsOnDisk(t *testing.T) {
	dir := t.TempDir()

	j, err := OpenJournal(dir)
	require.NoError(t, err)
	require.NoError(t, j.Append(envelope(1, "WorldGenerated")))
	require.NoError(t, j.Close())
	require.NoError(t, j.Close(), "повторное закрытие безопасно")

	reopened := openTestJournal(t, dir)
	recent, err := reopened.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "WorldGenerated", recent[0].EventType)
}

func TestJournal_ClosedRejectsWrites(t *testing.T) {
	j, err := OpenJournal("")
	require.NoError(t, err)
	require.NoError(t, j.Close())

	assert.Error(t, j.Append(envelope(1, "WorldGenerated")))
	_, err = j.Recent(1)
	assert.Error(t, err)
}

func TestJournal_AttachRecordsBusEvents(t *testing.T) {
	bus := eventbus.NewMemoryBus(8)
	defer bus.Close()

	j := openTestJournal(t, "")
	require.NoError(t, j.Attach(context.Background(), bus))

	require.NoError(t, bus.Publish(context.Background(), envelope(7, "WorldDisposed")))

	require.Eventually(t, func() bool {
		n, err := j.Count()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}
