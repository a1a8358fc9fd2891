package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/dock-health-etl/internal/domain"
)

func TestGenerateFeed_Deterministic(t *testing.T) {
	opts := genOptions{stations: 40, seed: 7, executionTime: "2021-01-01 09:15:02 AM", anomalyRate: 0.1}

	a := generateFeed(opts)
	b := generateFeed(opts)

	require.Len(t, a.StationBeanList, 40)
	for i := range a.StationBeanList {
		assert.Equal(t, *a.StationBeanList[i].TotalDocks, *b.StationBeanList[i].TotalDocks)
		assert.Equal(t, *a.StationBeanList[i].AvailableDocks, *b.StationBeanList[i].AvailableDocks)
	}
}

func TestGenerateFeed_Enrichable(t *testing.T) {
	feed := generateFeed(genOptions{stations: 200, seed: 3, executionTime: "2021-01-01 09:15:02 AM", anomalyRate: 0.2})

	summary, err := domain.Enrich(feed, domain.Red)
	require.NoError(t, err)

	assert.Equal(t, "2021-01-01", summary.Date)
	assert.Len(t, summary.Stations, 200)
	assert.Equal(t, 200, summary.ColorCounts[domain.Green]+summary.ColorCounts[domain.Yellow]+summary.ColorCounts[domain.Red])
	assert.Positive(t, summary.ColorCounts[domain.Red], "anomalies should produce red stations")
}

func TestGenerateFeed_Empty(t *testing.T) {
	feed := generateFeed(genOptions{stations: 0, seed: 1, executionTime: "2021-01-01 00:00:00 AM"})
	require.NotNil(t, feed.StationBeanList)
	assert.Empty(t, feed.StationBeanList)
}
