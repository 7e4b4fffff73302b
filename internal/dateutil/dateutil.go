package dateutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	// DateLayout - формат календарной даты в таблице
	DateLayout = "2006-01-02"
	// TimeLayout - формат времени суток
	TimeLayout = "15:04"
	// DefaultTime используется, когда у напоминания нет часа
	DefaultTime = "09:00"
)

var (
	offsetRe = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)
	dateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe   = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ParseOffset превращает смещение вида "-03:00" в фиксированную зону
func ParseOffset(offset string) (*time.Location, error) {
	m := offsetRe.FindStringSubmatch(offset)
	if m == nil {
		return nil, fmt.Errorf("invalid utc offset %q, expected ±HH:MM", offset)
	}
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("utc offset %q out of range", offset)
	}
	seconds := hours*3600 + minutes*60
	if m[1] == "-" {
		seconds = -seconds
	}
	return time.FixedZone("UTC"+offset, seconds), nil
}

// Clock отдаёт "сейчас" в настроенном смещении, а не в локальной зоне машины
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock создает часы для смещения вида "±HH:MM"
func NewClock(offset string) (*Clock, error) {
	loc, err := ParseOffset(offset)
	if err != nil {
		return nil, err
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// NewFixedClock создает часы, которые всегда возвращают now (для тестов и CLI)
func NewFixedClock(loc *time.Location, now time.Time) *Clock {
	return &Clock{loc: loc, now: func() time.Time { return now }}
}

// Location возвращает зону часов
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now возвращает текущий момент в зоне часов
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today возвращает сегодняшнюю дату в формате YYYY-MM-DD
func (c *Clock) Today() string {
	return c.Now().Format(DateLayout)
}

// FirstOfMonth возвращает первый день текущего месяца
func (c *Clock) FirstOfMonth() string {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.loc).Format(DateLayout)
}

// ComposeDueInstant собирает момент из даты и времени в зоне часов
func (c *Clock) ComposeDueInstant(date, hhmm string) (time.Time, bool) {
	return ComposeDueInstant(date, hhmm, c.loc)
}

// ComposeDueInstant собирает момент срабатывания напоминания.
// Пустое или кривое время заменяется на 09:00. ok == false, если дата
// некорректна или дата/время вне допустимого диапазона.
func ComposeDueInstant(date, hhmm string, loc *time.Location) (time.Time, bool) {
	if !ValidDate(date) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+NormalizeTime(hhmm), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeTime возвращает hhmm, если это HH:MM, иначе время по умолчанию
func NormalizeTime(hhmm string) string {
	if timeRe.MatchString(hhmm) {
		return hhmm
	}
	return DefaultTime
}

// IsTimeOfDay проверяет, что строка - корректное время HH:MM
func IsTimeOfDay(s string) bool {
	if !timeRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}

// ValidDate проверяет формат YYYY-MM-DD фиксированной ширины.
// Лексикографическое сравнение дат корректно только для таких строк.
func ValidDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Before сравнивает две даты YYYY-MM-DD
func Before(a, b string) bool {
	return a < b
}

// FormatDate форматирует год, месяц и день с нулями
func FormatDate(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}
