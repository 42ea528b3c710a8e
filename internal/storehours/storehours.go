// Package storehours evaluates a franchise's weekly store hours against a wall clock.
//
// Hours are naive local times without a timezone: only the weekday and the
// minutes since midnight of the supplied now, in its own location, are used.
// Callers that need a specific zone convert now before calling.
package storehours

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"grabbi/internal/model"
)

const minutesPerDay = 24 * 60

var (
	dayNames      = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	shortDayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
)

// Opening describes the next time a store opens.
type Opening struct {
	DayOfWeek         int    `json:"day_of_week"`
	DayName           string `json:"day_name"`
	ShortDayName      string `json:"short_day_name"`
	OpenTime          string `json:"open_time"`
	OpenTimeFormatted string `json:"open_time_formatted"`
	DaysAway          int    `json:"days_away"`
	IsToday           bool   `json:"is_today"`
	IsTomorrow        bool   `json:"is_tomorrow"`
}

// Info is the display status of a store.
type Info struct {
	IsOpen             bool     `json:"is_open"`
	Message            string   `json:"message"`
	CloseTime          string   `json:"close_time,omitempty"`
	CloseTimeFormatted string   `json:"close_time_formatted,omitempty"`
	NextOpening        *Opening `json:"next_opening,omitempty"`
	CurrentDay         *int     `json:"current_day,omitempty"` // set only from upstream status
}

// DaySchedule is one row of a weekly schedule.
type DaySchedule struct {
	DayOfWeek    int    `json:"day_of_week"`
	DayName      string `json:"day_name"`
	ShortDayName string `json:"short_day_name"`
	IsClosed     bool   `json:"is_closed"`
	OpenTime     string `json:"open_time,omitempty"`
	CloseTime    string `json:"close_time,omitempty"`
	Overnight    bool   `json:"overnight,omitempty"`
	Label        string `json:"label"`
}

// DayName returns the weekday name for 0-6 (Sunday first), "" otherwise.
func DayName(day int) string {
	if day < 0 || day > 6 {
		return ""
	}
	return dayNames[day]
}

// ShortDayName returns the three letter weekday name for 0-6, "" otherwise.
func ShortDayName(day int) string {
	if day < 0 || day > 6 {
		return ""
	}
	return shortDayNames[day]
}

// ParseClock parses "HH:MM" (an optional ":SS" suffix is ignored) into minutes since midnight.
func ParseClock(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	if len(parts[1]) != 2 || parts[0] == "" || len(parts[0]) > 2 {
		return 0, false
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, false
		}
	}

	return hours*60 + minutes, true
}

// FormatTime12Hour converts "22:00" to "10:00 PM". Returns "" for malformed input.
func FormatTime12Hour(time24 string) string {
	m, ok := ParseClock(time24)
	if !ok {
		return ""
	}
	return formatMinutes(m)
}

func formatMinutes(m int) string {
	hour := m / 60
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour12, m%60, ampm)
}

// window is a parsed, usable entry.
type window struct {
	entry  model.StoreHourEntry
	open   int
	close  int
	closed bool
}

func (w window) zeroLength() bool {
	return !w.closed && w.open == w.close
}

func (w window) overnight() bool {
	return !w.closed && w.close < w.open
}

func (w window) contains(minute int) bool {
	if w.closed || w.zeroLength() {
		return false
	}
	if w.overnight() {
		return minute >= w.open || minute < w.close
	}
	return minute >= w.open && minute < w.close
}

// windowFor returns the first well-formed entry for day. Entries with an
// out-of-range day or unparseable times are skipped.
func windowFor(hours []model.StoreHourEntry, day int) (window, bool) {
	for _, h := range hours {
		if h.DayOfWeek != day {
			continue
		}
		if h.IsClosed {
			return window{entry: h, closed: true}, true
		}
		open, ok := ParseClock(h.OpenTime)
		if !ok {
			continue
		}
		closeAt, ok := ParseClock(h.CloseTime)
		if !ok {
			continue
		}
		return window{entry: h, open: open, close: closeAt}, true
	}
	return window{}, false
}

func clock(now time.Time) (day, minute int) {
	return int(now.Weekday()), now.Hour()*60 + now.Minute()
}

// IsOpen reports whether the store is open at now according to today's entry.
// A window whose close is before its open spans midnight. A zero-length
// window (open == close) is treated as closed.
func IsOpen(hours []model.StoreHourEntry, now time.Time) bool {
	if len(hours) == 0 {
		return false
	}
	day, minute := clock(now)
	w, ok := windowFor(hours, day)
	if !ok {
		return false
	}
	return w.contains(minute)
}

// NextOpening scans today and the following six days for the next future opening.
// Today only counts when its opening time is still ahead.
func NextOpening(hours []model.StoreHourEntry, now time.Time) (Opening, bool) {
	if len(hours) == 0 {
		return Opening{}, false
	}
	today, minute := clock(now)

	for i := 0; i < 7; i++ {
		day := (today + i) % 7
		w, ok := windowFor(hours, day)
		if !ok || w.closed || w.zeroLength() {
			continue
		}
		if i == 0 && w.open <= minute {
			continue
		}
		return Opening{
			DayOfWeek:         day,
			DayName:           DayName(day),
			ShortDayName:      ShortDayName(day),
			OpenTime:          w.entry.OpenTime,
			OpenTimeFormatted: formatMinutes(w.open),
			DaysAway:          i,
			IsToday:           i == 0,
			IsTomorrow:        i == 1,
		}, true
	}

	return Opening{}, false
}

// NextOpeningMessage renders NextOpening for display.
func NextOpeningMessage(hours []model.StoreHourEntry, now time.Time) string {
	next, ok := NextOpening(hours, now)
	return openingMessage(next, ok)
}

func openingMessage(next Opening, ok bool) string {
	switch {
	case !ok:
		return "Currently unavailable"
	case next.IsToday:
		return "Opens today at " + next.OpenTimeFormatted
	case next.IsTomorrow:
		return "Opens tomorrow at " + next.OpenTimeFormatted
	default:
		return fmt.Sprintf("Opens %s at %s", next.DayName, next.OpenTimeFormatted)
	}
}

// Status combines an upstream status, when present, with local evaluation.
// An upstream status is trusted as is; local hours then only provide the next opening.
func Status(hours []model.StoreHourEntry, now time.Time, upstream *model.StoreStatus) Info {
	if upstream != nil {
		if upstream.IsOpen {
			msg := upstream.Message
			if msg == "" {
				msg = "Open now"
			}
			return Info{
				IsOpen:             true,
				Message:            msg,
				CloseTime:          upstream.CloseTime,
				CloseTimeFormatted: FormatTime12Hour(upstream.CloseTime),
			}
		}

		day := upstream.CurrentDay
		return closedInfo(hours, now, &day)
	}

	if IsOpen(hours, now) {
		today, _ := clock(now)
		w, _ := windowFor(hours, today)
		closeFormatted := formatMinutes(w.close)
		return Info{
			IsOpen:             true,
			Message:            "Open until " + closeFormatted,
			CloseTime:          w.entry.CloseTime,
			CloseTimeFormatted: closeFormatted,
		}
	}

	return closedInfo(hours, now, nil)
}

// FranchiseStatus is Status for a franchise record.
func FranchiseStatus(f *model.Franchise, now time.Time) Info {
	if f == nil {
		return closedInfo(nil, now, nil)
	}
	return Status(f.StoreHours, now, f.StoreStatus)
}

func closedInfo(hours []model.StoreHourEntry, now time.Time, currentDay *int) Info {
	next, ok := NextOpening(hours, now)
	info := Info{
		Message:    openingMessage(next, ok),
		CurrentDay: currentDay,
	}
	if ok {
		info.NextOpening = &next
	}
	return info
}

// WeeklySchedule returns seven rows, Sunday first. Days without a usable
// window are reported as closed.
func WeeklySchedule(hours []model.StoreHourEntry) []DaySchedule {
	out := make([]DaySchedule, 7)
	for day := 0; day < 7; day++ {
		row := DaySchedule{
			DayOfWeek:    day,
			DayName:      DayName(day),
			ShortDayName: ShortDayName(day),
			IsClosed:     true,
			Label:        "Closed",
		}
		if w, ok := windowFor(hours, day); ok && !w.closed && !w.zeroLength() {
			row.IsClosed = false
			row.OpenTime = w.entry.OpenTime
			row.CloseTime = w.entry.CloseTime
			row.Overnight = w.overnight()
			row.Label = formatMinutes(w.open) + " - " + formatMinutes(w.close)
		}
		out[day] = row
	}
	return out
}

// OpenMinutesPerWeek sums the length of every usable window. Overnight
// windows count through to their close on the next day.
func OpenMinutesPerWeek(hours []model.StoreHourEntry) int {
	total := 0
	for day := 0; day < 7; day++ {
		w, ok := windowFor(hours, day)
		if !ok || w.closed || w.zeroLength() {
			continue
		}
		if w.overnight() {
			total += minutesPerDay - w.open + w.close
		} else {
			total += w.close - w.open
		}
	}
	return total
}
