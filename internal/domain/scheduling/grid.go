package scheduling

import (
	"time"

	"github.com/vocare/calendar/internal/platform/calendar"
)

// Hours shown in the week grid, inclusive.
const (
	FirstHour = 7
	LastHour  = 19
)

// MonthGrid buckets appointments by calendar day for one month.
type MonthGrid struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	// LeadingBlanks is the weekday of the 1st (0 = Sunday), the number of
	// empty cells before it in a Sunday-first grid.
	LeadingBlanks int                              `json:"leading_blanks"`
	Days          []calendar.Date                  `json:"days"`
	Buckets       map[calendar.Date][]*Appointment `json:"buckets"`
	Previous      calendar.Date                    `json:"previous"`
	Next          calendar.Date                    `json:"next"`
}

// On returns the appointments of day d, or nil when d is outside the month.
func (g *MonthGrid) On(d calendar.Date) []*Appointment {
	return g.Buckets[d]
}

// BucketByDay places each appointment into the day of ref's month its start
// falls on, evaluated in ref's location. Appointments without a start or
// outside the month are dropped. Bucket order follows input order.
func BucketByDay(appts []*Appointment, ref time.Time) *MonthGrid {
	loc := ref.Location()
	year, month, _ := ref.Date()
	first := calendar.Date{Year: year, Month: month, Day: 1}
	n := calendar.DaysIn(year, month)

	g := &MonthGrid{
		Year:          year,
		Month:         month,
		LeadingBlanks: int(first.Weekday()),
		Days:          make([]calendar.Date, 0, n),
		Buckets:       make(map[calendar.Date][]*Appointment, n),
		Previous:      calendar.DateOf(calendar.AddMonths(ref, -1)),
		Next:          calendar.DateOf(calendar.AddMonths(ref, 1)),
	}
	for i := 0; i < n; i++ {
		d := first.AddDays(i)
		g.Days = append(g.Days, d)
		g.Buckets[d] = []*Appointment{}
	}

	for _, a := range appts {
		if a.Start == nil {
			continue
		}
		d := calendar.DateOf(a.Start.In(loc))
		if bucket, ok := g.Buckets[d]; ok {
			g.Buckets[d] = append(bucket, a)
		}
	}
	return g
}

// WeekGrid buckets appointments by day and hour for one Monday-first week.
type WeekGrid struct {
	Days     []calendar.Date                          `json:"days"`
	Hours    []int                                    `json:"hours"`
	Cells    map[calendar.Date]map[int][]*Appointment `json:"cells"`
	Previous calendar.Date                            `json:"previous"`
	Next     calendar.Date                            `json:"next"`
}

// At returns the appointments in cell (d, hour), or nil outside the grid.
func (g *WeekGrid) At(d calendar.Date, hour int) []*Appointment {
	return g.Cells[d][hour]
}

// BucketByHour places each appointment into the (day, hour) cell of the
// week containing ref, evaluated in ref's location. Only hours FirstHour
// through LastHour have cells; anything else is dropped.
func BucketByHour(appts []*Appointment, ref time.Time) *WeekGrid {
	loc := ref.Location()
	monday := calendar.StartOfWeek(ref)

	g := &WeekGrid{
		Days:     make([]calendar.Date, 0, 7),
		Hours:    make([]int, 0, LastHour-FirstHour+1),
		Cells:    make(map[calendar.Date]map[int][]*Appointment, 7),
		Previous: calendar.DateOf(calendar.AddWeeks(ref, -1)),
		Next:     calendar.DateOf(calendar.AddWeeks(ref, 1)),
	}
	for h := FirstHour; h <= LastHour; h++ {
		g.Hours = append(g.Hours, h)
	}
	for i := 0; i < 7; i++ {
		d := monday.AddDays(i)
		g.Days = append(g.Days, d)
		row := make(map[int][]*Appointment, len(g.Hours))
		for _, h := range g.Hours {
			row[h] = []*Appointment{}
		}
		g.Cells[d] = row
	}

	for _, a := range appts {
		if a.Start == nil {
			continue
		}
		start := a.Start.In(loc)
		row, ok := g.Cells[calendar.DateOf(start)]
		if !ok {
			continue
		}
		h := start.Hour()
		if cell, ok := row[h]; ok {
			row[h] = append(cell, a)
		}
	}
	return g
}
