package replication

import (
	"context"
	"testing"

	"github.com/arkeep-io/authcache/internal/directory"
	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/storetest"
	"github.com/stretchr/testify/require"
)

type noopPoller struct{}

func (noopPoller) GetNext(ctx context.Context) (directory.Entry, error) { return directory.Entry{}, ctx.Err() }
func (noopPoller) Subscribe(directory.Observer)                        {}

func TestNewDriverStartsVirginWhenChangeNumberAbsent(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()

	d, err := NewDriver(ctx, noopPoller{}, s, nil)
	require.NoError(t, err)
	require.False(t, d.Ready())

	_, ok, err := s.Get(ctx, model.VirginKey())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestApplyEntryAdvancesChangeNumberMonotonically(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	d, err := NewDriver(ctx, noopPoller{}, s, nil)
	require.NoError(t, err)

	entry := addEntry(5, map[string]any{
		"objectclass": []string{"sdcperson"},
		"uuid":        []string{"U"},
		"login":       []string{"admin"},
	})
	require.NoError(t, d.applyEntry(ctx, entry))
	require.Equal(t, int64(5), d.ChangeNumber())

	raw, ok, err := s.Get(ctx, model.ChangeNumberKey())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "5", raw)

	// A lower change number (e.g. a replayed entry) never moves it backwards.
	stale := addEntry(3, map[string]any{
		"objectclass": []string{"sdcperson"},
		"uuid":        []string{"U2"},
		"login":       []string{"second"},
	})
	require.NoError(t, d.applyEntry(ctx, stale))
	require.Equal(t, int64(5), d.ChangeNumber())
}

func TestOnPollEventClearsVirginOnlyOnFresh(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	d, err := NewDriver(ctx, noopPoller{}, s, nil)
	require.NoError(t, err)
	require.True(t, d.virgin)

	ready := false
	d.OnReady(func() { ready = true })

	d.onPollEvent(directory.EventStale)
	require.True(t, d.virgin)
	require.False(t, ready)

	d.onPollEvent(directory.EventFresh)
	require.False(t, d.virgin)
	require.True(t, ready)

	_, ok, err := s.Get(ctx, model.VirginKey())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUnsupportedOperationDoesNotAdvanceChangeNumber(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()
	d, err := NewDriver(ctx, noopPoller{}, s, nil)
	require.NoError(t, err)

	bad := directory.Entry{ChangeType: "rename", ChangeNumber: 9}
	err = d.applyEntry(ctx, bad)
	require.ErrorIs(t, err, ErrUnsupportedOperation)
	require.Equal(t, int64(0), d.ChangeNumber())
}
