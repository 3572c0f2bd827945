package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/t77yq/floorwatch/internal/model"
	"github.com/t77yq/floorwatch/internal/testutil"
)

type staticSource struct {
	stats model.Stats
	badge int
}

func (s staticSource) Stats() model.Stats { return s.stats }
func (s staticSource) BadgeCount() int    { return s.badge }

func testSource() staticSource {
	return staticSource{
		stats: model.Stats{
			Total:      3,
			Unread:     2,
			ByCategory: map[model.AlertCategory]int{model.CategoryMesa: 1, model.CategoryBalance: 2},
			ByPriority: map[model.AlertPriority]int{model.PriorityHigh: 2, model.PriorityMedium: 1},
		},
		badge: 2,
	}
}

func decodeReport(t *testing.T, msg *nats.Msg) StatsReport {
	t.Helper()
	var report StatsReport
	require.NoError(t, json.Unmarshal(msg.Data, &report))
	return report
}

func TestStatsPublisher_Publish(t *testing.T) {
	// Setup
	s, nc, cleanup := testutil.StartNATS(t)
	defer cleanup()

	listener := testutil.Connect(t, s)
	sub, err := listener.SubscribeSync(DefaultStatsSubject)
	require.NoError(t, err)
	require.NoError(t, listener.Flush())

	publisher := NewStatsPublisher(nc, "", time.Minute, testSource(), zap.NewNop())
	require.NoError(t, publisher.Publish())

	msg, err := sub.NextMsg(5 * time.Second)
	require.NoError(t, err)

	report := decodeReport(t, msg)
	assert.Equal(t, testSource().stats, report.Stats)
	assert.Equal(t, 2, report.BadgeCount)
	assert.WithinDuration(t, time.Now(), report.Timestamp, time.Minute)
	if report.Host != nil {
		assert.GreaterOrEqual(t, report.Host.MemoryUsage, 0.0)
		assert.LessOrEqual(t, report.Host.MemoryUsage, 100.0)
	}
}

func TestStatsPublisher_Loop(t *testing.T) {
	// Setup
	s, nc, cleanup := testutil.StartNATS(t)
	defer cleanup()

	listener := testutil.Connect(t, s)
	sub, err := listener.SubscribeSync("restaurant.stats")
	require.NoError(t, err)
	require.NoError(t, listener.Flush())

	publisher := NewStatsPublisher(nc, "restaurant.stats", 20*time.Millisecond, testSource(), zap.NewNop())
	require.NoError(t, publisher.Start(context.Background()))
	defer publisher.Stop()

	for i := 0; i < 2; i++ {
		msg, err := sub.NextMsg(5 * time.Second)
		require.NoError(t, err)
		assert.Equal(t, 3, decodeReport(t, msg).Stats.Total)
	}
}

func TestStatsPublisher_InvalidInterval(t *testing.T) {
	publisher := NewStatsPublisher(nil, "", 0, testSource(), zap.NewNop())
	assert.Error(t, publisher.Start(context.Background()))
}
