package scheduling

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
)

const (
	cleaningBuffer  = 5 * time.Minute
	slotGranularity = 15
	latestEndHour   = 2
)

const (
	FormatIMAX = "IMAX"
	Format3D   = "3D"
	Format2D   = "2D"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock parses a 24-hour "HH:MM" time of day.
func ParseClock(value string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return Clock{}, domain.NewValidationError("time %q must be in HH:MM format", value)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])

	return Clock{Hour: hour, Minute: minute}, nil
}

// DayIn returns local midnight of the calendar day d falls on, ignoring d's own location.
func DayIn(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// At places the clock on the calendar day of date in loc.
func (c Clock) At(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, loc)
}

// ComputeEndTime adds the movie duration and the cleaning buffer to start, rounds the result up
// to the next quarter hour and caps it at 02:00 on the day after start.
func ComputeEndTime(start time.Time, durationMinutes int, loc *time.Location) time.Time {
	local := start.In(loc)
	raw := local.Add(time.Duration(durationMinutes)*time.Minute + cleaningBuffer)

	end := time.Date(raw.Year(), raw.Month(), raw.Day(), raw.Hour(), raw.Minute()-raw.Minute()%slotGranularity, 0, 0, loc)
	if end.Before(raw) {
		end = end.Add(slotGranularity * time.Minute)
	}

	ceiling := time.Date(local.Year(), local.Month(), local.Day()+1, latestEndHour, 0, 0, 0, loc)
	if end.After(ceiling) {
		return ceiling
	}

	return end
}

// IsWeekend reports whether date is a Saturday or Sunday in loc.
func IsWeekend(date time.Time, loc *time.Location) bool {
	switch date.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}

	return false
}

// FormatOf extracts the projection format from a showtime type tag such as "3D Lồng tiếng".
// It returns an empty string when the tag names no known format.
func FormatOf(showtimeType string) string {
	tag := strings.ToUpper(showtimeType)

	for _, format := range []string{FormatIMAX, Format3D, Format2D} {
		if strings.Contains(tag, format) {
			return format
		}
	}

	return ""
}
