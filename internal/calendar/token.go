package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ivanoskov/gastos_bot/internal/dateutil"
)

// Prefix - пространство имен токенов календаря
const Prefix = "rmd"

const sep = "|"

var (
	// ErrForeignToken означает, что токен принадлежит другому обработчику
	ErrForeignToken = errors.New("calendar: foreign token")
	// ErrMalformedToken означает токен календаря с битым содержимым
	ErrMalformedToken = errors.New("calendar: malformed token")
)

// Kind - тип действия, закодированного в токене
type Kind int

const (
	NoOp Kind = iota
	Navigate
	Pick
	PickTime
	ChangeDate
)

func (k Kind) String() string {
	switch k {
	case Navigate:
		return "nav"
	case Pick:
		return "pick"
	case PickTime:
		return "time"
	case ChangeDate:
		return "changeDate"
	default:
		return "noop"
	}
}

// Action - декодированное действие пользователя в календаре.
// Для Navigate Month может быть 0 или 13, Decode нормализует его.
type Action struct {
	Kind  Kind
	Year  int
	Month int
	Day   int
	Time  string // "" - время по умолчанию
}

// Date возвращает выбранную дату в формате YYYY-MM-DD
func (a Action) Date() string {
	return dateutil.FormatDate(a.Year, time.Month(a.Month), a.Day)
}

// NavigateTo строит действие перехода к месяцу (month может выходить за 1..12 на единицу)
func NavigateTo(year, month int) Action {
	return Action{Kind: Navigate, Year: year, Month: month}
}

// PickDay строит действие выбора дня
func PickDay(year, month, day int) Action {
	return Action{Kind: Pick, Year: year, Month: month, Day: day}
}

// PickTimeOfDay строит действие выбора времени
func PickTimeOfDay(hhmm string) Action {
	return Action{Kind: PickTime, Time: hhmm}
}

// Encode превращает действие в строку callback_data
func Encode(a Action) string {
	switch a.Kind {
	case Navigate:
		return strings.Join([]string{Prefix, "nav", strconv.Itoa(a.Year), two(a.Month)}, sep)
	case Pick:
		return strings.Join([]string{Prefix, "pick", strconv.Itoa(a.Year), two(a.Month), two(a.Day)}, sep)
	case PickTime:
		return strings.Join([]string{Prefix, "time", a.Time}, sep)
	case ChangeDate:
		return Prefix + sep + "changeDate"
	default:
		return Prefix + sep + "noop"
	}
}

// Decode разбирает callback_data. Чужие токены возвращают ErrForeignToken,
// чтобы вызывающий мог оставить событие другим обработчикам.
func Decode(token string) (Action, error) {
	if !strings.HasPrefix(token, Prefix+sep) {
		return Action{}, ErrForeignToken
	}
	parts := strings.Split(token, sep)

	switch parts[1] {
	case "noop":
		return Action{Kind: NoOp}, nil
	case "changeDate":
		return Action{Kind: ChangeDate}, nil
	case "nav":
		if len(parts) != 4 {
			return Action{}, fmt.Errorf("%w: %q", ErrMalformedToken, token)
		}
		year, err1 := strconv.Atoi(parts[2])
		month, err2 := strconv.Atoi(parts[3])
		if err1 != nil || err2 != nil || month < 0 || month > 13 {
			return Action{}, fmt.Errorf("%w: %q", ErrMalformedToken, token)
		}
		year, month = wrapMonth(year, month)
		return NavigateTo(year, month), nil
	case "pick":
		if len(parts) != 5 {
			return Action{}, fmt.Errorf("%w: %q", ErrMalformedToken, token)
		}
		year, err1 := strconv.Atoi(parts[2])
		month, err2 := strconv.Atoi(parts[3])
		day, err3 := strconv.Atoi(parts[4])
		if err1 != nil || err2 != nil || err3 != nil {
			return Action{}, fmt.Errorf("%w: %q", ErrMalformedToken, token)
		}
		a := PickDay(year, month, day)
		if !dateutil.ValidDate(a.Date()) {
			return Action{}, fmt.Errorf("%w: %q", ErrMalformedToken, token)
		}
		return a, nil
	case "time":
		if len(parts) != 3 {
			return Action{}, fmt.Errorf("%w: %q", ErrMalformedToken, token)
		}
		if parts[2] != "" && !dateutil.IsTimeOfDay(parts[2]) {
			return Action{}, fmt.Errorf("%w: %q", ErrMalformedToken, token)
		}
		return PickTimeOfDay(parts[2]), nil
	}
	return Action{}, fmt.Errorf("%w: %q", ErrMalformedToken, token)
}

// wrapMonth переносит месяц 0 в декабрь прошлого года, а 13 - в январь следующего
func wrapMonth(year, month int) (int, int) {
	switch {
	case month <= 0:
		return year - 1, 12
	case month >= 13:
		return year + 1, 1
	}
	return year, month
}

func two(n int) string {
	return fmt.Sprintf("%02d", n)
}
