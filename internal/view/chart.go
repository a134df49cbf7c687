package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hatewatch-dashboard/internal/model"
)

const (
	chartWidth  = 800
	chartHeight = 300
	chartLeft   = 48
	chartRight  = 16
	chartTop    = 16
	chartBottom = 32
)

type ChartPoint struct {
	Label    string
	Toxicity string // empty for a gap
	Posts    string
	X, Y     float64
	HasValue bool
}

type ChartTick struct {
	Label string
	Y     float64
}

type ChartView struct {
	Title       string
	Placeholder string
	Width       int
	Height      int
	Left, Right float64
	Points      []ChartPoint
	// Segments are SVG polyline point lists; a nil average breaks the line.
	Segments []string
	Ticks    []ChartTick
	// BaselineY is set when a baseline is drawn.
	HasBaseline   bool
	BaselineY     float64
	BaselineLabel string
}

// Chart lays out the timeline on a fixed 0-100% y domain. Points are spaced
// evenly in API order.
func Chart(points []model.TimelinePoint, baseline *float64, days int, loc *time.Location) ChartView {
	v := ChartView{
		Title:  fmt.Sprintf("Toxicity Over Time (Last %d Days)", days),
		Width:  chartWidth,
		Height: chartHeight,
		Left:   chartLeft,
		Right:  chartWidth - chartRight,
	}
	if len(points) == 0 {
		v.Placeholder = "No data available"
		return v
	}
	if loc == nil {
		loc = time.UTC
	}

	for pct := 0; pct <= 100; pct += 25 {
		v.Ticks = append(v.Ticks, ChartTick{Label: strconv.Itoa(pct) + "%", Y: yFor(float64(pct))})
	}

	var seg []string
	flush := func() {
		if len(seg) > 0 {
			v.Segments = append(v.Segments, strings.Join(seg, " "))
			seg = nil
		}
	}
	for i, p := range points {
		cp := ChartPoint{
			Label: formatDay(p.Timestamp.Time, loc),
			Posts: FormatCount(p.PostCount),
			X:     xFor(i, len(points)),
		}
		if p.AvgToxicity == nil {
			flush()
		} else {
			pct := Percent(*p.AvgToxicity)
			cp.HasValue = true
			cp.Toxicity = fmt.Sprintf("%.1f", pct)
			cp.Y = yFor(pct)
			seg = append(seg, fmt.Sprintf("%.1f,%.1f", cp.X, cp.Y))
		}
		v.Points = append(v.Points, cp)
	}
	flush()

	if baseline != nil {
		v.HasBaseline = true
		v.BaselineY = yFor(Percent(*baseline))
		v.BaselineLabel = "Baseline"
	}
	return v
}

func xFor(i, n int) float64 {
	plot := float64(chartWidth - chartLeft - chartRight)
	if n <= 1 {
		return chartLeft + plot/2
	}
	return chartLeft + plot*float64(i)/float64(n-1)
}

// yFor maps a percentage to SVG space, clamped to the plot area.
func yFor(pct float64) float64 {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	plot := float64(chartHeight - chartTop - chartBottom)
	return chartTop + plot*(1-pct/100)
}
