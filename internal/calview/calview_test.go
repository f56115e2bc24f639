package calview

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestMonth(t *testing.T) {
	t.Parallel()

	// August 2026 starts on a Saturday.
	out := Month(2026, time.August, Options{})
	lines := strings.Split(out, "\n")

	if !strings.Contains(lines[0], "August 2026") {
		t.Errorf("title line = %q", lines[0])
	}
	if lines[1] != "wk  Mo Tu We Th Fr Sa Su" {
		t.Errorf("header = %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], " 1  2") {
		t.Errorf("opening row = %q, want it to end with \" 1  2\"", lines[2])
	}
	if !strings.Contains(lines[3], " 3  4  5  6  7  8  9") {
		t.Errorf("first full row = %q", lines[3])
	}

	for day := 1; day <= 31; day++ {
		if !strings.Contains(out, fmt.Sprintf("%2d", day)) {
			t.Errorf("day %d missing:\n%s", day, out)
		}
	}

	// Week numbers are ISO weeks of the row's first cell.
	_, wk := time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC).ISOWeek()
	if !strings.HasPrefix(lines[3], fmt.Sprintf("%2d", wk)) {
		t.Errorf("row %q does not start with ISO week %d", lines[3], wk)
	}
}

func TestMonthStartSunday(t *testing.T) {
	t.Parallel()

	out := Month(2026, time.August, Options{StartSunday: true})
	lines := strings.Split(out, "\n")

	if lines[1] != "wk  Su Mo Tu We Th Fr Sa" {
		t.Errorf("header = %q", lines[1])
	}
	// With Sunday first, Saturday August 1 is the last cell of its row.
	if !strings.HasSuffix(lines[2], " 1") {
		t.Errorf("opening row = %q", lines[2])
	}
}

func TestYear(t *testing.T) {
	t.Parallel()

	out := Year(2026, Options{})
	for m := time.January; m <= time.December; m++ {
		if !strings.Contains(out, fmt.Sprintf("%s 2026", m)) {
			t.Errorf("month %s missing from year view", m)
		}
	}
	if !strings.Contains(out, "2026") {
		t.Errorf("year banner missing:\n%s", out)
	}
}

func TestMonthRowCount(t *testing.T) {
	t.Parallel()

	// February 2027 starts on a Monday and has exactly 4 full weeks.
	out := Month(2027, time.February, Options{})
	lines := strings.Split(out, "\n")
	if got := len(lines) - 2; got != 4 {
		t.Errorf("February 2027 rendered %d rows, want 4:\n%s", got, out)
	}

	// August 2026 spans 6 Monday-started rows.
	out = Month(2026, time.August, Options{})
	lines = strings.Split(out, "\n")
	if got := len(lines) - 2; got != 6 {
		t.Errorf("August 2026 rendered %d rows, want 6:\n%s", got, out)
	}
}
