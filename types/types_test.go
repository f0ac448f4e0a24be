package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var ref = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestParseAppointmentRoundTrip(t *testing.T) {
	for name, month := range months {
		for _, clock := range []string{"00:00", "08:46", "23:59"} {
			raw := RawSlot{Day: "07", Month: name, Time: clock}

			a, err := ParseAppointment(raw.Label(), "X", ref)
			require.NoError(t, err)
			require.Equal(t, raw.Label(), a.Label)
			require.Equal(t, month, a.When.Month())
			require.Equal(t, 7, a.When.Day())
			require.Equal(t, 2026, a.When.Year())
		}
	}
}

func TestParseAppointmentFields(t *testing.T) {
	a, err := ParseAppointment("07 Abril 08:46", "Oficina Centro", ref)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, time.April, 7, 8, 46, 0, 0, time.UTC), a.When)
	require.Equal(t, "Oficina Centro", a.Office)
	require.Equal(t, "07 Abril 08:46 at Oficina Centro", a.String())
	require.Equal(t, time.Date(2026, time.April, 7, 0, 0, 0, 0, time.UTC), a.Date())
}

func TestParseAppointmentRejects(t *testing.T) {
	tests := []string{
		"",
		"07 Abril",
		"07 April 08:46",
		"31 Abril 08:46",
		"29 Febrero 10:00", // 2026 не високосный
		"0 Mayo 10:00",
		"07 Mayo 24:00",
		"07 Mayo 10:5",
		"xx Mayo 10:00",
	}
	for _, label := range tests {
		_, err := ParseAppointment(label, "X", ref)
		require.Error(t, err, label)
		require.True(t, errors.Is(err, ErrInvalidLabel), label)
	}
}

func TestMonthNameInverse(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		got, ok := MonthNumber(MonthName(m))
		require.True(t, ok)
		require.Equal(t, m, got)
	}
}

func TestBeforeIgnoresOffice(t *testing.T) {
	a, _ := ParseAppointment("05 Mayo 10:00", "Y", ref)
	b, _ := ParseAppointment("10 Mayo 09:00", "A", ref)
	require.True(t, a.Before(b))
	require.False(t, b.Before(a))
	require.False(t, a.Before(a))
}

func TestIsPastAndNextYear(t *testing.T) {
	december := time.Date(2026, time.December, 20, 9, 0, 0, 0, time.UTC)
	a, err := ParseAppointment("05 Enero 10:00", "X", december)
	require.NoError(t, err)
	require.True(t, IsPast(a, december))

	moved, ok := NextYear(a)
	require.True(t, ok)
	require.Equal(t, 2027, moved.When.Year())
	require.False(t, IsPast(moved, december))
	require.Equal(t, a.Label, moved.Label)

	leap := time.Date(2028, time.March, 1, 0, 0, 0, 0, time.UTC)
	feb29, err := ParseAppointment("29 Febrero 10:00", "X", leap)
	require.NoError(t, err)
	_, ok = NextYear(feb29)
	require.False(t, ok)
}

func TestSearchWindow(t *testing.T) {
	w := SearchWindow{DaysToSearch: 30}
	require.True(t, w.Allows(ref.AddDate(1, 0, 0)))

	cutoff := time.Date(2026, time.May, 10, 9, 0, 0, 0, time.UTC)
	w.Tighten(cutoff)
	require.True(t, w.Allows(time.Date(2026, time.May, 10, 23, 0, 0, 0, time.UTC)))
	require.False(t, w.Allows(time.Date(2026, time.May, 11, 0, 0, 0, 0, time.UTC)))

	w.Tighten(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.Equal(t, time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC), *w.Cutoff)

	w.Tighten(time.Date(2026, time.May, 5, 10, 0, 0, 0, time.UTC))
	require.Equal(t, time.Date(2026, time.May, 5, 0, 0, 0, 0, time.UTC), *w.Cutoff)
}

func TestMonitorStateEmpty(t *testing.T) {
	require.True(t, MonitorState{}.Empty())
	a, _ := ParseAppointment("07 Abril 08:46", "X", ref)
	require.False(t, MonitorState{Earliest: &a}.Empty())
}
