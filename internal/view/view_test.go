package view

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hatewatch-dashboard/internal/model"
	"hatewatch-dashboard/internal/refresh"
)

func ptr[T any](v T) *T { return &v }

func ts(t *testing.T, s string) model.Timestamp {
	t.Helper()
	v, err := model.ParseTimestamp(s)
	require.NoError(t, err)
	return v
}

func exportURL(id int64) string { return fmt.Sprintf("http://dash.local/api/export/%d", id) }

func TestSeverityClass(t *testing.T) {
	assert.Equal(t, "severity-critical", SeverityClass(model.SeverityCritical))
	assert.Equal(t, "severity-high", SeverityClass(model.SeverityHigh))
	assert.Equal(t, "severity-medium", SeverityClass(model.SeverityMedium))
	assert.Equal(t, "severity-low", SeverityClass(model.SeverityLow))
	assert.Equal(t, "severity-low", SeverityClass("severe"))
	assert.Equal(t, "severity-low", SeverityClass(""))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatCount(1234567))
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "42.0", FormatPercent(0.42))
	assert.Equal(t, "12.3", FormatPercent(0.1234))
	assert.Equal(t, "0.0", FormatPercent(0))

	assert.Equal(t, "+151%", SpikeLabel(150.5))
	assert.Equal(t, "+149%", SpikeLabel(149.4))
	assert.Equal(t, "+1%", SpikeLabel(0.5))
	assert.Equal(t, "+200%", SpikeLabel(200))
}

func TestStatsBar(t *testing.T) {
	v := StatsBar(nil)
	assert.Equal(t, "Loading stats...", v.Placeholder)
	assert.Empty(t, v.Cards)

	v = StatsBar(&model.Stats{TotalPosts24h: 15230, AvgToxicity24h: ptr(0.237), ActiveSpikes: 3, ChannelsMonitored: 42})
	require.Len(t, v.Cards, 4)
	assert.Equal(t, StatCard{Value: "15,230", Label: "Posts / 24h"}, v.Cards[0])
	assert.Equal(t, StatCard{Value: "3", Label: "Active Alerts"}, v.Cards[1])
	assert.Equal(t, StatCard{Value: "42", Label: "Channels"}, v.Cards[2])
	assert.Equal(t, StatCard{Value: "23.7%", Label: "Avg Toxicity"}, v.Cards[3])

	v = StatsBar(&model.Stats{})
	assert.Equal(t, "N/A", v.Cards[3].Value)

	v = StatsBar(&model.Stats{AvgToxicity24h: ptr(0.0)})
	assert.Equal(t, "0.0%", v.Cards[3].Value)
}

func TestChartSinglePoint(t *testing.T) {
	points := []model.TimelinePoint{{Timestamp: ts(t, "2024-01-05T00:00:00"), AvgToxicity: ptr(0.42), PostCount: 10}}

	v := Chart(points, nil, 7, time.UTC)
	assert.Equal(t, "Toxicity Over Time (Last 7 Days)", v.Title)
	assert.Empty(t, v.Placeholder)
	require.Len(t, v.Points, 1)
	assert.Equal(t, "42.0", v.Points[0].Toxicity)
	assert.Equal(t, "Jan 5", v.Points[0].Label)
	assert.True(t, v.Points[0].HasValue)
	assert.Len(t, v.Segments, 1)
	assert.False(t, v.HasBaseline)
}

func TestChartGapsAndBaseline(t *testing.T) {
	points := []model.TimelinePoint{
		{Timestamp: ts(t, "2024-01-01"), AvgToxicity: ptr(0.1)},
		{Timestamp: ts(t, "2024-01-02"), AvgToxicity: nil},
		{Timestamp: ts(t, "2024-01-03"), AvgToxicity: ptr(0.3)},
		{Timestamp: ts(t, "2024-01-04"), AvgToxicity: ptr(0.2)},
	}
	v := Chart(points, ptr(0.5), 7, time.UTC)
	require.Len(t, v.Points, 4)
	assert.False(t, v.Points[1].HasValue)
	assert.Empty(t, v.Points[1].Toxicity)
	assert.Len(t, v.Segments, 2)

	assert.True(t, v.HasBaseline)
	assert.InDelta(t, yFor(50), v.BaselineY, 1e-9)
	assert.Equal(t, "Baseline", v.BaselineLabel)

	// fixed 0-100 domain: higher toxicity is drawn higher up
	assert.Less(t, v.Points[2].Y, v.Points[0].Y)
	assert.InDelta(t, float64(chartTop), yFor(100), 1e-9)
	assert.InDelta(t, float64(chartHeight-chartBottom), yFor(0), 1e-9)
}

func TestChartEmpty(t *testing.T) {
	v := Chart(nil, ptr(0.4), 7, time.UTC)
	assert.Equal(t, "No data available", v.Placeholder)
	assert.Empty(t, v.Points)
	assert.False(t, v.HasBaseline)
}

func TestAlertFeed(t *testing.T) {
	v := AlertFeed(nil, nil, exportURL, time.UTC)
	assert.Equal(t, "Active Alerts", v.Title)
	assert.Equal(t, "No active alerts", v.Placeholder)

	alerts := []model.Alert{
		{
			ID: 7, Severity: "severe", SpikePercentage: 150.5, PostCount: 12,
			StartedAt: ts(t, "2024-01-05T15:04:00"),
			SamplePosts: []model.Post{
				{ID: 1, Text: "first", ToxicityScore: ptr(0.91), PostedAt: ts(t, "2024-01-05T15:10:00")},
				{ID: 2, Text: "second"},
			},
		},
		{ID: 8, Severity: model.SeverityCritical, Country: ptr("Germany"), ChannelUsername: ptr("chan_de")},
	}
	v = AlertFeed(alerts, map[int64]bool{8: true}, exportURL, time.UTC)
	assert.Equal(t, "Active Alerts (2)", v.Title)
	require.Len(t, v.Cards, 2)

	c := v.Cards[0]
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, "severity-low", c.SeverityClass)
	assert.Equal(t, "Unknown | Channel", c.Location)
	assert.Equal(t, "12 posts | Started Jan 5, 3:04 PM", c.Meta)
	assert.Equal(t, "+151%", c.Spike)
	assert.Equal(t, "http://dash.local/api/export/7", c.ExportURL)
	assert.False(t, c.New)
	require.Len(t, c.Samples, 2)
	assert.Equal(t, "91.0%", c.Samples[0].Toxicity)
	assert.Equal(t, "Jan 5, 3:10 PM", c.Samples[0].Posted)
	assert.Equal(t, "N/A", c.Samples[1].Toxicity)

	assert.Equal(t, "Germany | chan_de", v.Cards[1].Location)
	assert.Equal(t, "severity-critical", v.Cards[1].SeverityClass)
	assert.True(t, v.Cards[1].New)
}

func TestCountrySelector(t *testing.T) {
	opts := CountrySelector([]string{"Germany", "France"}, "France")
	require.Len(t, opts, 3)
	assert.Equal(t, CountryOption{Value: "", Label: "All Countries (Global)"}, opts[0])
	assert.Equal(t, CountryOption{Value: "Germany", Label: "Germany"}, opts[1])
	assert.Equal(t, CountryOption{Value: "France", Label: "France", Selected: true}, opts[2])

	opts = CountrySelector(nil, "")
	require.Len(t, opts, 1)
	assert.True(t, opts[0].Selected)
}

func loadedSnapshot(t *testing.T) refresh.Snapshot {
	return refresh.Snapshot{
		Generation:   4,
		Stats:        &model.Stats{TotalPosts24h: 1200, AvgToxicity24h: ptr(0.3), ActiveSpikes: 1, ChannelsMonitored: 5},
		Alerts:       []model.Alert{{ID: 7, Severity: "unknown-level", SpikePercentage: 150.5, PostCount: 3, SamplePosts: []model.Post{{ID: 1, Text: "sample text"}}}},
		Timeline:     []model.TimelinePoint{{Timestamp: ts(t, "2024-01-05"), AvgToxicity: ptr(0.42), PostCount: 10}},
		TimelineDays: 7,
		Countries:    []string{"Germany"},
		LastUpdated:  time.Date(2024, 1, 5, 15, 4, 5, 0, time.UTC),
		Interval:     60 * time.Second,
	}
}

func TestPage(t *testing.T) {
	v := Page(refresh.Snapshot{Loading: true, Interval: time.Minute}, PageOptions{})
	assert.True(t, v.LoadingOnly)

	s := loadedSnapshot(t)
	v = Page(s, PageOptions{ExportURL: exportURL})
	assert.False(t, v.LoadingOnly)
	assert.Equal(t, "Refresh", v.RefreshButton)
	assert.Equal(t, "1/5/2024, 3:04:05 PM", v.LastUpdated)
	assert.Equal(t, "HateWatch MVP | Data updates every 60 seconds", v.FooterNote)
	assert.True(t, v.Chart.HasBaseline)

	s.Loading = true
	s.Err = refresh.FetchErrorMessage
	v = Page(s, PageOptions{})
	assert.False(t, v.LoadingOnly)
	assert.Equal(t, "Loading...", v.RefreshButton)
	assert.Equal(t, refresh.FetchErrorMessage, v.Error)
}

func TestRenderPage(t *testing.T) {
	r, err := NewRenderer(PageOptions{Location: time.UTC, ExportURL: exportURL})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, loadedSnapshot(t)))
	out := buf.String()

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, `<details class="card alert severity-low" data-alert-id="7">`)
	assert.NotContains(t, out, "<details open")
	assert.NotContains(t, out, " open>")
	// html/template escapes '+' in text
	assert.Contains(t, out, "&#43;151%")
	assert.Contains(t, out, `href="http://dash.local/api/export/7" target="_blank"`)
	assert.Contains(t, out, "Toxicity: N/A")
	assert.Contains(t, out, "Last updated: 1/5/2024, 3:04:05 PM")
	assert.Contains(t, out, "HateWatch MVP | Data updates every 60 seconds")
	assert.Contains(t, out, "All Countries (Global)")
	assert.Contains(t, out, "<title>Jan 5: 42.0% (10 posts)</title>")
	assert.Contains(t, out, "class=\"baseline\"")
}

func TestRenderContentStates(t *testing.T) {
	r, err := NewRenderer(PageOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Content(&buf, refresh.Snapshot{Loading: true}))
	assert.Contains(t, buf.String(), "Loading dashboard...")
	assert.NotContains(t, buf.String(), "<html")

	s := loadedSnapshot(t)
	s.Loading = true
	s.Err = refresh.FetchErrorMessage
	s.Alerts = nil
	s.Timeline = nil
	buf.Reset()
	require.NoError(t, r.Content(&buf, s))
	out := buf.String()
	assert.Contains(t, out, "Loading...</button>")
	assert.True(t, strings.Contains(out, "disabled"))
	assert.Contains(t, out, "Make sure the API server is running.")
	assert.Contains(t, out, "No active alerts")
	assert.Contains(t, out, "No data available")
}
