// Package holiday answers "is this date a public holiday?" for the skip gate.
//
// Holiday dates are computed per-year from the rickar/cal definitions and
// cached, so repeated trigger evaluations don't recompute movable feasts.
package holiday

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
)

// Calendar is safe for concurrent use.
type Calendar struct {
	defs []*cal.Holiday

	mu    sync.Mutex
	years map[int]map[string]bool // year -> "mm-dd" set
}

// New builds a holiday calendar for a country code. Only "DE" is wired; an
// unknown country is an error so misconfiguration surfaces at startup, not at
// fire time.
func New(country string) (*Calendar, error) {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "DE":
		return &Calendar{
			defs:  de.Holidays,
			years: map[int]map[string]bool{},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported holiday country %q", country)
	}
}

// IsHoliday reports whether t falls on a public holiday.
func (c *Calendar) IsHoliday(t time.Time) bool {
	if c == nil {
		return false
	}
	year := t.Year()

	c.mu.Lock()
	table, ok := c.years[year]
	if !ok {
		table = c.computeYear(year)
		c.years[year] = table
	}
	c.mu.Unlock()

	return table[monthDay(t)]
}

func (c *Calendar) computeYear(year int) map[string]bool {
	table := make(map[string]bool, len(c.defs))
	for _, h := range c.defs {
		if h == nil {
			continue
		}
		actual, _ := h.Calc(year)
		if actual.IsZero() {
			continue
		}
		table[monthDay(actual)] = true
	}
	return table
}

func monthDay(t time.Time) string {
	return fmt.Sprintf("%02d-%02d", int(t.Month()), t.Day())
}
