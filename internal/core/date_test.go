package core

import (
	"reflect"
	"testing"
)

func TestClampDay(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month int
		day   int
		want  int
	}{
		{name: "fits as-is", year: 2025, month: 1, day: 15, want: 15},
		{name: "31 into april", year: 2025, month: 4, day: 31, want: 30},
		{name: "31 into february", year: 2025, month: 2, day: 31, want: 28},
		{name: "31 into leap february", year: 2024, month: 2, day: 31, want: 29},
		{name: "30 into february", year: 2025, month: 2, day: 30, want: 28},
		{name: "last day exact", year: 2025, month: 6, day: 30, want: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampDay(tt.year, tt.month, tt.day); got != tt.want {
				t.Errorf("ClampDay(%d, %d, %d) = %d, want %d", tt.year, tt.month, tt.day, got, tt.want)
			}
		})
	}
}

func TestLastDayOfMonth(t *testing.T) {
	tests := []struct {
		year  int
		month int
		want  int
	}{
		{2025, 1, 31},
		{2025, 2, 28},
		{2024, 2, 29},
		{2100, 2, 28},
		{2025, 4, 30},
		{2025, 12, 31},
	}

	for _, tt := range tests {
		if got := LastDayOfMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("LastDayOfMonth(%d, %d) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestPreviousMonths(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month int
		n     int
		want  [][2]int
	}{
		{
			name: "within one year",
			year: 2025, month: 6, n: 3,
			want: [][2]int{{2025, 4}, {2025, 5}, {2025, 6}},
		},
		{
			name: "crosses year boundary",
			year: 2025, month: 2, n: 4,
			want: [][2]int{{2024, 11}, {2024, 12}, {2025, 1}, {2025, 2}},
		},
		{
			name: "single month",
			year: 2025, month: 1, n: 1,
			want: [][2]int{{2025, 1}},
		},
		{
			name: "full year from december",
			year: 2024, month: 12, n: 12,
			want: [][2]int{
				{2024, 1}, {2024, 2}, {2024, 3}, {2024, 4},
				{2024, 5}, {2024, 6}, {2024, 7}, {2024, 8},
				{2024, 9}, {2024, 10}, {2024, 11}, {2024, 12},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PreviousMonths(tt.year, tt.month, tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PreviousMonths(%d, %d, %d) = %v, want %v", tt.year, tt.month, tt.n, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-05")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2025 || d.Month() != 1 || d.Day() != 5 {
		t.Errorf("ParseDate = %s, want 2025-01-05", d)
	}

	for _, bad := range []string{"", "2025-13-01", "05/01/2025", "2025-01-32", "not a date"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) = nil error, want error", bad)
		}
	}
}

func TestMonthRange(t *testing.T) {
	first, last := MonthRange(2024, 2)
	if first.String() != "2024-02-01" {
		t.Errorf("first = %s, want 2024-02-01", first)
	}
	if last.String() != "2024-02-29" {
		t.Errorf("last = %s, want 2024-02-29", last)
	}
}

func TestMonthName(t *testing.T) {
	tests := []struct {
		month int
		want  string
	}{
		{1, "Jan"}, {6, "Jun"}, {12, "Dec"}, {0, ""}, {13, ""},
	}
	for _, tt := range tests {
		if got := MonthName(tt.month); got != tt.want {
			t.Errorf("MonthName(%d) = %q, want %q", tt.month, got, tt.want)
		}
	}
}
