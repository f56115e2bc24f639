// Package calview renders plain-text month and year calendars with ISO week
// numbers, for display in chat code blocks.
package calview

import (
	"fmt"
	"strings"
	"time"
)

const cellWidth = 3 // "dd "

var weekdayAbbr = map[time.Weekday]string{
	time.Monday:    "Mo",
	time.Tuesday:   "Tu",
	time.Wednesday: "We",
	time.Thursday:  "Th",
	time.Friday:    "Fr",
	time.Saturday:  "Sa",
	time.Sunday:    "Su",
}

type Options struct {
	// StartSunday puts Sunday in the first column instead of Monday.
	StartSunday bool
}

func (o Options) firstDay() time.Weekday {
	if o.StartSunday {
		return time.Sunday
	}
	return time.Monday
}

// Month renders one month, e.g.
//
//	     August 2026
//	wk  Mo Tu We Th Fr Sa Su
//	31                  1  2
//	32   3  4  5  6  7  8  9
//	...
func Month(year int, month time.Month, opts Options) string {
	lines := monthLines(year, month, opts)
	return strings.Join(lines, "\n")
}

// Year renders all twelve months of a year in three columns.
func Year(year int, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", center(fmt.Sprintf("%d", year), 3*rowWidth()+4))

	for row := 0; row < 4; row++ {
		cols := make([][]string, 3)
		height := 0
		for c := 0; c < 3; c++ {
			cols[c] = monthLines(year, time.Month(row*3+c+1), opts)
			if len(cols[c]) > height {
				height = len(cols[c])
			}
		}
		for line := 0; line < height; line++ {
			parts := make([]string, 3)
			for c := 0; c < 3; c++ {
				s := ""
				if line < len(cols[c]) {
					s = cols[c][line]
				}
				parts[c] = pad(s, rowWidth())
			}
			b.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func monthLines(year int, month time.Month, opts Options) []string {
	first := opts.firstDay()

	header := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		header = append(header, weekdayAbbr[time.Weekday((int(first)+i)%7)])
	}

	lines := []string{
		center(fmt.Sprintf("%s %d", month, year), rowWidth()),
		"wk  " + strings.Join(header, " "),
	}

	day := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// Rewind to the first cell of the opening row.
	for day.Weekday() != first {
		day = day.AddDate(0, 0, -1)
	}

	for day.Month() == month || day.Before(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)) {
		_, week := day.ISOWeek()
		var row strings.Builder
		fmt.Fprintf(&row, "%2d  ", week)
		for i := 0; i < 7; i++ {
			if day.Month() == month {
				fmt.Fprintf(&row, "%2d ", day.Day())
			} else {
				row.WriteString("   ")
			}
			day = day.AddDate(0, 0, 1)
		}
		lines = append(lines, strings.TrimRight(row.String(), " "))
	}
	return lines
}

func rowWidth() int { return 4 + 7*cellWidth - 1 }

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
