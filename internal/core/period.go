package core

import "time"

// Window is a half-open reporting interval [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// MonthWindow returns the window covering a calendar month.
func MonthWindow(year, month int) Window {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Window{From: from, To: from.AddDate(0, 1, 0)}
}

// YearWindow returns the window covering a calendar year.
func YearWindow(year int) Window {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return Window{From: from, To: from.AddDate(1, 0, 0)}
}

// Previous returns the immediately preceding period of equal length: the
// prior month for a month window, the prior year for a year window, and a
// duration-shifted window otherwise.
func (w Window) Previous() Window {
	switch {
	case w.To.Equal(w.From.AddDate(0, 1, 0)):
		return Window{From: w.From.AddDate(0, -1, 0), To: w.From}
	case w.To.Equal(w.From.AddDate(1, 0, 0)):
		return Window{From: w.From.AddDate(-1, 0, 0), To: w.From}
	default:
		d := w.To.Sub(w.From)
		return Window{From: w.From.Add(-d), To: w.From}
	}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// Covers reports whether the inclusive interval [from, to] overlaps the
// window. Fee validity windows are inclusive on both ends.
func (w Window) Covers(from, to time.Time) bool {
	return from.Before(w.To) && !to.Before(w.From)
}

func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// SameDay reports whether two instants fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// DayKey formats t as the calendar-day key used by the reminder firing log.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
