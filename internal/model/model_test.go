package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityTreatment(t *testing.T) {
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		assert.True(t, s.Known(), s)
		assert.Equal(t, s, s.Treatment())
	}
	for _, s := range []Severity{"", "unknown", "CRITICAL", "severe"} {
		assert.False(t, s.Known(), s)
		assert.Equal(t, SeverityLow, s.Treatment(), s)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-01-01T12:30:00Z",
		"2024-01-01T14:30:00+02:00",
		"2024-01-01T12:30:00",
		"2024-01-01T12:30:00.000000",
		"2024-01-01 12:30:00",
	} {
		ts, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(ts.Time), "%s parsed as %s", in, ts.Time)
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestTimelineDecodesNullAverage(t *testing.T) {
	body := `{"timeline":[
		{"timestamp":"2024-01-01T00:00:00Z","avg_toxicity":0.42,"post_count":10},
		{"timestamp":"2024-01-02T00:00:00","avg_toxicity":null,"post_count":0}
	]}`
	var tl Timeline
	require.NoError(t, json.Unmarshal([]byte(body), &tl))
	require.Len(t, tl.Timeline, 2)

	require.NotNil(t, tl.Timeline[0].AvgToxicity)
	assert.InDelta(t, 0.42, *tl.Timeline[0].AvgToxicity, 1e-9)
	assert.Nil(t, tl.Timeline[1].AvgToxicity)
	assert.Equal(t, 2, tl.Timeline[1].Timestamp.Day())
}

func TestAlertDecode(t *testing.T) {
	body := `{
		"id": 7, "channel_id": null, "channel_username": "chan", "country": null,
		"target_group": null, "severity": "weird", "spike_percentage": 150.5,
		"post_count": 12, "baseline_avg": 0.1, "spike_avg": 0.4,
		"started_at": "2024-03-05T08:15:00", "is_active": true,
		"sample_posts": [{"id": 1, "text": "x", "toxicity_score": 0.9, "posted_at": "2024-03-05T08:20:00"}]
	}`
	var a Alert
	require.NoError(t, json.Unmarshal([]byte(body), &a))
	assert.Equal(t, int64(7), a.ID)
	assert.Nil(t, a.Country)
	require.NotNil(t, a.ChannelUsername)
	assert.Equal(t, "chan", *a.ChannelUsername)
	assert.Equal(t, Severity("weird"), a.Severity)
	assert.Equal(t, SeverityLow, a.Severity.Treatment())
	assert.Equal(t, 150.5, a.SpikePercentage)
	require.Len(t, a.SamplePosts, 1)
	assert.Equal(t, 8, a.SamplePosts[0].PostedAt.Hour())
}
