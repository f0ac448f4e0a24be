package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidLabel — строка слота не разбирается в "<день> <Месяц> <ЧЧ:ММ>".
var ErrInvalidLabel = errors.New("invalid appointment label")

// months — названия месяцев в том виде, в каком их показывает портал.
var months = map[string]time.Month{
	"Enero":      time.January,
	"Febrero":    time.February,
	"Marzo":      time.March,
	"Abril":      time.April,
	"Mayo":       time.May,
	"Junio":      time.June,
	"Julio":      time.July,
	"Agosto":     time.August,
	"Septiembre": time.September,
	"Octubre":    time.October,
	"Noviembre":  time.November,
	"Diciembre":  time.December,
}

// MonthNumber возвращает номер месяца по его названию на портале.
func MonthNumber(name string) (time.Month, bool) {
	m, ok := months[name]
	return m, ok
}

// MonthName — обратное к MonthNumber.
func MonthName(m time.Month) string {
	for name, month := range months {
		if month == m {
			return name
		}
	}
	return ""
}

// RawSlot — одна карточка слота в том виде, в каком её отдаёт портал.
type RawSlot struct {
	Day   string // "07"
	Month string // "Abril"
	Time  string // "08:46"
}

// Label собирает строку слота в формате, который хранится в state-файле.
func (r RawSlot) Label() string {
	return r.Day + " " + r.Month + " " + r.Time
}

// Appointment — предложенная запись в одном офисе.
type Appointment struct {
	When   time.Time
	Office string
	Label  string // "07 Abril 08:46"
}

// ParseAppointment разбирает "07 Abril 08:46" в дату года ref.
// Год всегда берётся из ref: слот "Enero", увиденный в декабре, окажется в прошлом (см. IsPast).
func ParseAppointment(label, office string, ref time.Time) (Appointment, error) {
	fields := strings.Fields(label)
	if len(fields) != 3 {
		return Appointment{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}

	day, err := strconv.Atoi(fields[0])
	if err != nil || day < 1 || day > 31 {
		return Appointment{}, fmt.Errorf("%w: bad day in %q", ErrInvalidLabel, label)
	}

	month, ok := months[fields[1]]
	if !ok {
		return Appointment{}, fmt.Errorf("%w: unknown month in %q", ErrInvalidLabel, label)
	}

	hour, minute, err := parseClock(fields[2])
	if err != nil {
		return Appointment{}, fmt.Errorf("%w: %v in %q", ErrInvalidLabel, err, label)
	}

	when := time.Date(ref.Year(), month, day, hour, minute, 0, 0, ref.Location())
	if when.Day() != day {
		return Appointment{}, fmt.Errorf("%w: day %d out of range for %s", ErrInvalidLabel, day, fields[1])
	}

	return Appointment{
		When:   when,
		Office: office,
		Label:  strings.Join(fields, " "),
	}, nil
}

func parseClock(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("bad time %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("bad hour %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("bad minute %q", s)
	}
	return hour, minute, nil
}

// String — как запись выглядит в уведомлениях.
func (a Appointment) String() string {
	return a.Label + " at " + a.Office
}

// Date возвращает полночь дня записи.
func (a Appointment) Date() time.Time {
	return DayOf(a.When)
}

// Before сравнивает только время записи, офис не учитывается.
func (a Appointment) Before(other Appointment) bool {
	return a.When.Before(other.When)
}

// IsPast — дата записи раньше сегодняшнего дня (признак перехода через год).
func IsPast(a Appointment, now time.Time) bool {
	return a.Date().Before(DayOf(now))
}

// NextYear переносит запись на следующий год. Если такого дня нет (29 февраля), ok=false.
func NextYear(a Appointment) (Appointment, bool) {
	w := a.When
	moved := time.Date(w.Year()+1, w.Month(), w.Day(), w.Hour(), w.Minute(), 0, 0, w.Location())
	if moved.Day() != w.Day() {
		return a, false
	}
	a.When = moved
	return a, true
}

// DayOf — полночь дня t в его же зоне.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MonitorState — лучшая известная запись. Earliest == nil: ничего не отслеживаем.
type MonitorState struct {
	Earliest *Appointment
}

// Empty — ничего не отслеживается.
func (s MonitorState) Empty() bool {
	return s.Earliest == nil
}

// SearchWindow ограничивает поиск: DaysToSearch дней от сегодня и, если задан, Cutoff.
type SearchWindow struct {
	DaysToSearch int
	Cutoff       *time.Time
}

// Allows — можно ли запрашивать этот день. Дни строго после cutoff не запрашиваются.
func (w SearchWindow) Allows(date time.Time) bool {
	if w.Cutoff == nil {
		return true
	}
	return !DayOf(date).After(DayOf(*w.Cutoff))
}

// Tighten сдвигает cutoff только в более раннюю сторону.
func (w *SearchWindow) Tighten(date time.Time) {
	d := DayOf(date)
	if w.Cutoff == nil || d.Before(*w.Cutoff) {
		w.Cutoff = &d
	}
}
