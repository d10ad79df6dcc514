package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradesync/internal/market/state"
	"tradesync/pkg/storage/postgres"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run ^TestPostgresInvalidDSN$
func TestPostgresInvalidDSN(t *testing.T) {
	invalidDSN := "host=invalid.invalid port=5432 user=fail password=fail dbname=fail sslmode=disable connect_timeout=2"

	_, err := postgres.NewClient(invalidDSN)
	if err == nil {
		t.Fatal("expected error for invalid DSN, got nil")
	}
}

// go test -v --run TestToSignalRecord
func TestToSignalRecord(t *testing.T) {
	at := time.Date(2024, 6, 14, 9, 30, 0, 0, time.FixedZone("EDT", -4*3600))
	rec, err := postgres.ToSignalRecord(state.Signal{
		ID:         "sig-1",
		Symbol:     "AMD",
		Sentiment:  state.Bullish,
		Status:     state.StatusActive,
		Price:      decimal.RequireFromString("160.25"),
		Confidence: 0.82,
		Reason:     "breakout above 50d high",
		At:         at,
	})
	require.NoError(t, err)

	assert.Equal(t, "sig-1", rec.EventID)
	assert.Equal(t, "bullish", rec.Sentiment)
	assert.Equal(t, "active", rec.Status)
	assert.True(t, rec.Price.Equal(decimal.RequireFromString("160.25")))
	assert.Equal(t, time.UTC, rec.At.Location())
	assert.True(t, rec.At.Equal(at))

	_, err = postgres.ToSignalRecord(state.Signal{Symbol: "AMD"})
	assert.Error(t, err)
}

// go test -v --run TestToInsightRecord
func TestToInsightRecord(t *testing.T) {
	rec, err := postgres.ToInsightRecord(state.Insight{
		ID:        "ins-1",
		Sentiment: state.Neutral,
		Status:    state.StatusPending,
		Title:     "Sector rotation",
		At:        time.Unix(0, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, "ins-1", rec.EventID)
	assert.Equal(t, "neutral", rec.Sentiment)
	assert.Equal(t, "insight_record", rec.TableName())

	_, err = postgres.ToInsightRecord(state.Insight{})
	assert.Error(t, err)
}

// go test -v --run TestEventArchiveRoundTrip
func TestEventArchiveRoundTrip(t *testing.T) {
	cfg := liveConfig(t, "tradesync_test")

	client, err := postgres.InitializeAndMigrate(cfg, "dev", true)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.True(t, client.IsHealthy(ctx))

	old := time.Now().Add(-48 * time.Hour)
	rec, err := postgres.ToSignalRecord(state.Signal{
		ID: "roundtrip-" + old.Format(time.RFC3339Nano), Symbol: "QQQ",
		Sentiment: state.Bearish, Status: state.StatusActive, At: old,
	})
	require.NoError(t, err)

	require.NoError(t, client.InsertSignal(ctx, rec))
	dup := *rec
	dup.ID = 0
	err = client.InsertSignal(ctx, &dup)
	require.True(t, errors.Is(err, postgres.ErrDuplicate), "got %v", err)

	n, err := client.DeleteEventsBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}
