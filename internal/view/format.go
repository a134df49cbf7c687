package view

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	dayLayout        = "Jan 2"
	dayTimeLayout    = "Jan 2, 3:04 PM"
	lastUpdateLayout = "1/2/2006, 3:04:05 PM"
)

var printer = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// Percent converts a [0,1] ratio to a percentage rounded to one decimal.
func Percent(ratio float64) float64 {
	return math.Round(ratio*1000) / 10
}

// FormatPercent renders a [0,1] ratio as a percentage with one decimal, without the sign.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f", Percent(ratio))
}

// SpikeLabel renders a spike percentage as "+N%". N is rounded to the nearest
// integer with halves rounded away from zero, so 150.5 becomes "+151%".
func SpikeLabel(pct float64) string {
	return fmt.Sprintf("+%d%%", int64(math.Round(pct)))
}

func formatDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLayout)
}

func formatDayTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayTimeLayout)
}

func formatLastUpdated(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(lastUpdateLayout)
}
