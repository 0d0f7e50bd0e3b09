package housekeeping

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arkeep-io/authcache/internal/model"
	"github.com/arkeep-io/authcache/internal/storetest"
)

func putTempCredential(t *testing.T, s *storetest.Fake, id, expiration string) {
	t.Helper()
	raw, err := model.Marshal(&model.TempCredential{
		AccessKeyID: id,
		UserUUID:    "user-1",
		Expiration:  expiration,
	})
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), model.AccessKeyKey(id), string(raw)))
	require.NoError(t, s.SetAdd(context.Background(), model.SetTempCredentialsKey(), id))
}

func fixedSweepNow() time.Time {
	return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
}

func TestSweepReportsExpiredButDoesNotDeleteByDefault(t *testing.T) {
	s := storetest.New()
	putTempCredential(t, s, "MSTSexpired", "2026-07-31T10:00:00Z")
	putTempCredential(t, s, "MSTSfresh", "2026-08-01T00:00:00Z")

	sw, err := New(s, Config{Interval: time.Hour, ReportOnly: true}, zap.NewNop())
	require.NoError(t, err)
	sw.now = fixedSweepNow

	sw.sweepOnce(context.Background())

	_, ok, err := s.Get(context.Background(), model.AccessKeyKey("MSTSexpired"))
	require.NoError(t, err)
	require.True(t, ok, "report-only mode must not delete expired credentials")
}

func TestSweepDeletesExpiredWhenReportOnlyDisabled(t *testing.T) {
	s := storetest.New()
	putTempCredential(t, s, "MSTSexpired", "2026-07-31T10:00:00Z")
	putTempCredential(t, s, "MSTSfresh", "2026-08-01T00:00:00Z")

	sw, err := New(s, Config{Interval: time.Hour, ReportOnly: false}, zap.NewNop())
	require.NoError(t, err)
	sw.now = fixedSweepNow

	sw.sweepOnce(context.Background())

	_, ok, err := s.Get(context.Background(), model.AccessKeyKey("MSTSexpired"))
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = s.Get(context.Background(), model.AccessKeyKey("MSTSfresh"))
	require.NoError(t, err)
	require.True(t, ok)

	members, err := s.SetMembers(context.Background(), model.SetTempCredentialsKey())
	require.NoError(t, err)
	require.Equal(t, []string{"MSTSfresh"}, members)
}

func TestSweepIgnoresRecordsWithoutExpiration(t *testing.T) {
	s := storetest.New()
	putTempCredential(t, s, "MSARnoexp", "")

	sw, err := New(s, Config{Interval: time.Hour, ReportOnly: false}, zap.NewNop())
	require.NoError(t, err)
	sw.now = fixedSweepNow

	sw.sweepOnce(context.Background())

	_, ok, err := s.Get(context.Background(), model.AccessKeyKey("MSARnoexp"))
	require.NoError(t, err)
	require.True(t, ok)
}
