package tiles

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const forecastChartHeight = "180px"

var sharedForecastCache = NewRenderCache(15 * time.Minute)

// ForecastChart renders the weather tile's hourly temperature line as
// server-side echarts markup.
type ForecastChart struct {
	cache RenderCache
	theme string
}

// ForecastChartOption customizes chart rendering.
type ForecastChartOption func(*ForecastChart)

// WithForecastCache injects a render cache.
func WithForecastCache(cache RenderCache) ForecastChartOption {
	return func(c *ForecastChart) { c.cache = cache }
}

// WithForecastTheme overrides the chart theme.
func WithForecastTheme(theme string) ForecastChartOption {
	return func(c *ForecastChart) { c.theme = theme }
}

// NewForecastChart builds a chart renderer backed by the shared cache.
func NewForecastChart(options ...ForecastChartOption) *ForecastChart {
	c := &ForecastChart{
		cache: sharedForecastCache,
		theme: types.ThemeWesteros,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Render produces chart HTML for the forecast series, memoized per tile
// configuration so refresh cycles reuse the rendered fragment.
func (c *ForecastChart) Render(meta TileContext, hourly []ForecastPoint) (string, error) {
	renderFn := func() (string, error) { return c.render(hourly) }
	if c.cache == nil {
		return renderFn()
	}
	key := fmt.Sprintf("%s:%d:%s:%d", meta.Tile.Type, meta.Tile.ID, configHash(meta.Config), bucketHour(hourly))
	return c.cache.GetOrRender(key, renderFn)
}

// bucketHour folds the series start into the cache key so a stale chart is
// dropped once the forecast window advances.
func bucketHour(hourly []ForecastPoint) int64 {
	if len(hourly) == 0 {
		return 0
	}
	return hourly[0].Time.Truncate(time.Hour).Unix()
}

func (c *ForecastChart) render(hourly []ForecastPoint) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  c.theme,
			Width:  "100%",
			Height: forecastChartHeight,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)

	labels := make([]string, len(hourly))
	data := make([]opts.LineData, len(hourly))
	for i, point := range hourly {
		labels[i] = point.Time.Format("15:04")
		data[i] = opts.LineData{Value: point.Temperature}
	}
	line.SetXAxis(labels)
	line.AddSeries("Temperature", data)
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return renderChartHTML(line)
}

func renderChartHTML(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
