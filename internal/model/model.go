package model

// Severity is the alert severity as reported by the API. Values outside the
// four known levels are kept verbatim.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Known reports whether s is one of the four recognized levels.
func (s Severity) Known() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Treatment returns the level used for display; unknown values fall back to low.
func (s Severity) Treatment() Severity {
	if s.Known() {
		return s
	}
	return SeverityLow
}

// Stats is the aggregate overview for the last 24 hours.
type Stats struct {
	TotalPosts24h     int      `json:"total_posts_24h"`
	AvgToxicity24h    *float64 `json:"avg_toxicity_24h"`
	ActiveSpikes      int      `json:"active_spikes"`
	ChannelsMonitored int      `json:"channels_monitored"`
}

// Post is a scored message. Sample posts attached to alerts use the same shape.
type Post struct {
	ID              int64     `json:"id"`
	Text            string    `json:"text"`
	ToxicityScore   *float64  `json:"toxicity_score"`
	PostedAt        Timestamp `json:"posted_at"`
	ChannelUsername *string   `json:"channel_username,omitempty"`
}

// Alert is a detected spike.
type Alert struct {
	ID              int64     `json:"id"`
	ChannelID       *int64    `json:"channel_id"`
	ChannelUsername *string   `json:"channel_username"`
	Country         *string   `json:"country"`
	TargetGroup     *string   `json:"target_group"`
	Severity        Severity  `json:"severity"`
	SpikePercentage float64   `json:"spike_percentage"`
	PostCount       int       `json:"post_count"`
	BaselineAvg     *float64  `json:"baseline_avg"`
	SpikeAvg        *float64  `json:"spike_avg"`
	StartedAt       Timestamp `json:"started_at"`
	IsActive        bool      `json:"is_active"`
	SamplePosts     []Post    `json:"sample_posts"`
}

// AlertDetail is the single-alert response including every linked post.
type AlertDetail struct {
	Alert
	Posts []Post `json:"posts"`
}

type TimelinePoint struct {
	Timestamp   Timestamp `json:"timestamp"`
	AvgToxicity *float64  `json:"avg_toxicity"`
	PostCount   int       `json:"post_count"`
}

type Timeline struct {
	Timeline []TimelinePoint `json:"timeline"`
}
