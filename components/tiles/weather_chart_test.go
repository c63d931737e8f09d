package tiles

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleForecast(start time.Time, hours int) []ForecastPoint {
	out := make([]ForecastPoint, hours)
	for i := range out {
		out[i] = ForecastPoint{Time: start.Add(time.Duration(i) * time.Hour), Temperature: 10 + float64(i)}
	}
	return out
}

type countingCache struct {
	hits    int32
	backing RenderCache
}

func (c *countingCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	atomic.AddInt32(&c.hits, 1)
	return c.backing.GetOrRender(key, render)
}

func TestForecastChartRendersEcharts(t *testing.T) {
	chart := NewForecastChart(WithForecastCache(NewRenderCache(0)))
	meta := TileContext{Tile: Tile{Type: TypeWeather, ID: 1}}

	html, err := chart.Render(meta, sampleForecast(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), 12))
	require.NoError(t, err)
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "09:00")
}

func TestForecastChartMemoizesPerConfig(t *testing.T) {
	cache := &countingCache{backing: NewRenderCache(time.Minute)}
	chart := NewForecastChart(WithForecastCache(cache))
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	metaA := TileContext{Tile: Tile{Type: TypeWeather, ID: 1}, Config: map[string]any{"latitude": 51.5}}
	metaB := TileContext{Tile: Tile{Type: TypeWeather, ID: 1}, Config: map[string]any{"latitude": 48.9}}

	first, err := chart.Render(metaA, sampleForecast(start, 6))
	require.NoError(t, err)
	second, err := chart.Render(metaA, sampleForecast(start, 6))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A different config renders a distinct cache entry.
	_, err = chart.Render(metaB, sampleForecast(start, 6))
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&cache.hits))
}

func TestBucketHourFoldsSeriesStart(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 42, 0, 0, time.UTC)
	bucket := bucketHour([]ForecastPoint{{Time: start}})
	assert.Equal(t, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC).Unix(), bucket)
	assert.Equal(t, int64(0), bucketHour(nil))
}
