package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// periodParams reads month/year query parameters, defaulting to the current
// UTC period when absent.
func periodParams(r *http.Request) (month, year int, err error) {
	now := time.Now().UTC()
	month, year = int(now.Month()), now.Year()

	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, convErr := strconv.Atoi(v)
		if convErr != nil {
			return 0, 0, core.NewValidationError("month", "must be an integer")
		}
		month = m
	}
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, convErr := strconv.Atoi(v)
		if convErr != nil {
			return 0, 0, core.NewValidationError("year", "must be an integer")
		}
		year = y
	}
	if !core.ValidPeriod(month, year) {
		return 0, 0, core.ErrInvalidMonth
	}
	return month, year, nil
}

// optionalPeriodParams reads month/year and reports whether both were given.
// List endpoints return the full history when the period is absent.
func optionalPeriodParams(r *http.Request) (month, year int, ok bool, err error) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("month")) == "" || strings.TrimSpace(q.Get("year")) == "" {
		return 0, 0, false, nil
	}
	month, year, err = periodParams(r)
	if err != nil {
		return 0, 0, false, err
	}
	return month, year, true, nil
}

// monthsParam reads the months window size, defaulting to 6. Range checks
// happen in the trend service.
func monthsParam(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("months"))
	if v == "" {
		return 6, nil
	}
	months, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.NewValidationError("months", "must be an integer")
	}
	return months, nil
}
