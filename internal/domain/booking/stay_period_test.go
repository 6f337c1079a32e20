package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
)

func mustPeriod(t *testing.T, in, out string) StayPeriod {
	t.Helper()
	p, err := ParseStayPeriod(in, out)
	require.NoError(t, err)
	return p
}

func TestStayPeriod_Overlaps(t *testing.T) {
	a := mustPeriod(t, "2024-01-01", "2024-01-05")

	tests := []struct {
		name    string
		in, out string
		want    bool
	}{
		{"inside", "2024-01-02", "2024-01-03", true},
		{"straddles check-out", "2024-01-03", "2024-01-10", true},
		{"straddles check-in", "2023-12-28", "2024-01-02", true},
		{"covers", "2023-12-01", "2024-02-01", true},
		{"same range", "2024-01-01", "2024-01-05", true},
		{"turnover after", "2024-01-05", "2024-01-10", false},
		{"turnover before", "2023-12-28", "2024-01-01", false},
		{"disjoint", "2024-02-01", "2024-02-03", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustPeriod(t, tt.in, tt.out)
			assert.Equal(t, tt.want, a.Overlaps(b))
			assert.Equal(t, tt.want, b.Overlaps(a), "overlap must be symmetric")
		})
	}
}

func TestNewStayPeriod_RejectsEmptyOrInvertedRange(t *testing.T) {
	_, err := ParseStayPeriod("2024-01-05", "2024-01-05")
	assert.True(t, domain.IsValidation(err))

	_, err = ParseStayPeriod("2024-01-05", "2024-01-01")
	assert.True(t, domain.IsValidation(err))

	_, err = ParseStayPeriod("05.01.2024", "2024-01-06")
	assert.True(t, domain.IsValidation(err))

	assert.True(t, domain.IsValidation(StayPeriod{}.Validate()))
}

func TestStayPeriod_Days(t *testing.T) {
	assert.Equal(t, 4, mustPeriod(t, "2024-01-01", "2024-01-05").Days())
	assert.Equal(t, 1, mustPeriod(t, "2024-02-28", "2024-02-29").Days())
	assert.Equal(t, 31, mustPeriod(t, "2024-03-01", "2024-04-01").Days())
}

func TestCalendarDay_DropsClock(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	got := CalendarDay(time.Date(2024, 1, 5, 23, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), got)
}

func TestMonthOf(t *testing.T) {
	p := MonthOf(time.Date(2024, 2, 17, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, "[2024-02-01, 2024-03-01)", p.String())
	assert.Equal(t, 29, p.Days())
}
