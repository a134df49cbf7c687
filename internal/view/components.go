// Package view turns a refresh snapshot into display models and HTML. Every
// function here is pure: no network access and no timers.
package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hatewatch-dashboard/internal/model"
	"hatewatch-dashboard/internal/refresh"
)

type StatCard struct {
	Value string
	Label string
}

type StatsBarView struct {
	Placeholder string
	Cards       []StatCard
}

// StatsBar renders the four overview cards, or a placeholder before any stats
// have been loaded.
func StatsBar(s *model.Stats) StatsBarView {
	if s == nil {
		return StatsBarView{Placeholder: "Loading stats..."}
	}
	avg := "N/A"
	if s.AvgToxicity24h != nil {
		avg = FormatPercent(*s.AvgToxicity24h) + "%"
	}
	return StatsBarView{Cards: []StatCard{
		{Value: FormatCount(s.TotalPosts24h), Label: "Posts / 24h"},
		{Value: strconv.Itoa(s.ActiveSpikes), Label: "Active Alerts"},
		{Value: strconv.Itoa(s.ChannelsMonitored), Label: "Channels"},
		{Value: avg, Label: "Avg Toxicity"},
	}}
}

type SamplePostView struct {
	Text     string
	Toxicity string
	Posted   string
}

type AlertCardView struct {
	ID            int64
	Severity      string
	SeverityClass string
	Location      string
	Meta          string
	Spike         string
	ExportURL     string
	New           bool
	Samples       []SamplePostView
}

type AlertFeedView struct {
	Title       string
	Placeholder string
	Cards       []AlertCardView
}

// AlertFeed renders alerts in the order given. fresh marks alerts shown for
// the first time; exportURL builds each card's download link.
func AlertFeed(alerts []model.Alert, fresh map[int64]bool, exportURL func(int64) string, loc *time.Location) AlertFeedView {
	if len(alerts) == 0 {
		return AlertFeedView{Title: "Active Alerts", Placeholder: "No active alerts"}
	}
	v := AlertFeedView{
		Title: fmt.Sprintf("Active Alerts (%d)", len(alerts)),
		Cards: make([]AlertCardView, 0, len(alerts)),
	}
	for _, a := range alerts {
		v.Cards = append(v.Cards, AlertCard(a, fresh[a.ID], exportURL, loc))
	}
	return v
}

func AlertCard(a model.Alert, isNew bool, exportURL func(int64) string, loc *time.Location) AlertCardView {
	card := AlertCardView{
		ID:            a.ID,
		Severity:      string(a.Severity),
		SeverityClass: SeverityClass(a.Severity),
		Location:      orDefault(a.Country, "Unknown") + " | " + orDefault(a.ChannelUsername, "Channel"),
		Meta:          fmt.Sprintf("%d posts | Started %s", a.PostCount, formatDayTime(a.StartedAt.Time, loc)),
		Spike:         SpikeLabel(a.SpikePercentage),
		New:           isNew,
	}
	if exportURL != nil {
		card.ExportURL = exportURL(a.ID)
	}
	for _, p := range a.SamplePosts {
		tox := "N/A"
		if p.ToxicityScore != nil {
			tox = FormatPercent(*p.ToxicityScore) + "%"
		}
		card.Samples = append(card.Samples, SamplePostView{
			Text:     p.Text,
			Toxicity: tox,
			Posted:   formatDayTime(p.PostedAt.Time, loc),
		})
	}
	return card
}

// SeverityClass is the CSS class for a severity; unknown values get the low style.
func SeverityClass(s model.Severity) string {
	return "severity-" + string(s.Treatment())
}

type CountryOption struct {
	Value    string
	Label    string
	Selected bool
}

// CountrySelector lists "All Countries (Global)" followed by the countries in
// API order.
func CountrySelector(countries []string, selected string) []CountryOption {
	opts := make([]CountryOption, 0, len(countries)+1)
	opts = append(opts, CountryOption{Value: "", Label: "All Countries (Global)", Selected: selected == ""})
	for _, c := range countries {
		opts = append(opts, CountryOption{Value: c, Label: c, Selected: c == selected})
	}
	return opts
}

type PageView struct {
	LoadingOnly   bool
	Loading       bool
	Error         string
	Countries     []CountryOption
	Stats         StatsBarView
	Chart         ChartView
	Feed          AlertFeedView
	LastUpdated   string
	FooterNote    string
	Generation    uint64
	RefreshButton string
}

type PageOptions struct {
	Location  *time.Location
	ExportURL func(int64) string
}

// Page assembles the whole dashboard from a snapshot.
func Page(s refresh.Snapshot, opts PageOptions) PageView {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	v := PageView{
		LoadingOnly: s.Loading && !s.HasData(),
		Loading:     s.Loading,
		Error:       s.Err,
		Generation:  s.Generation,
		LastUpdated: formatLastUpdated(s.LastUpdated, loc),
		FooterNote:  fmt.Sprintf("HateWatch MVP | Data updates every %s", intervalText(s.Interval)),
	}
	if v.LoadingOnly {
		return v
	}
	v.RefreshButton = "Refresh"
	if s.Loading {
		v.RefreshButton = "Loading..."
	}
	v.Countries = CountrySelector(s.Countries, s.Country)
	v.Stats = StatsBar(s.Stats)
	var baseline *float64
	if s.Stats != nil {
		baseline = s.Stats.AvgToxicity24h
	}
	v.Chart = Chart(s.Timeline, baseline, s.TimelineDays, loc)
	v.Feed = AlertFeed(s.Alerts, s.NewAlerts, opts.ExportURL, loc)
	return v
}

func intervalText(d time.Duration) string {
	if d <= 0 {
		d = 60 * time.Second
	}
	secs := int(d / time.Second)
	if secs == 1 {
		return "second"
	}
	return strconv.Itoa(secs) + " seconds"
}

func orDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}
