package query

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type dateRange struct {
	start, end int64
}

// datePredicate matches a unix-seconds timestamp against a disjunction
// of inclusive ranges (a plain range has one member; Ne has two).
type datePredicate struct {
	ranges []dateRange
}

func (p *datePredicate) matches(ts int64) bool {
	for _, r := range p.ranges {
		if ts >= r.start && ts <= r.end {
			return true
		}
	}
	return false
}

// buildDatePredicate classifies a date filter's argument per spec §4.11.
func buildDatePredicate(arg *FilterArgument, today time.Time) (*datePredicate, error) {
	if arg == nil {
		return nil, fmt.Errorf("date filter requires a value")
	}
	switch arg.Shape {
	case ShapeList:
		return nil, fmt.Errorf("date filters do not accept lists")
	case ShapeComparison:
		s, e, err := parseDateValue(arg.CompValue, today)
		if err != nil {
			return nil, err
		}
		switch arg.CompOp {
		case OpLE:
			return &datePredicate{ranges: []dateRange{{math.MinInt64, e}}}, nil
		case OpGE:
			return &datePredicate{ranges: []dateRange{{s, math.MaxInt64}}}, nil
		case OpLT:
			return &datePredicate{ranges: []dateRange{{math.MinInt64, s - 1}}}, nil
		case OpGT:
			return &datePredicate{ranges: []dateRange{{e + 1, math.MaxInt64}}}, nil
		case OpEQ:
			return &datePredicate{ranges: []dateRange{{s, e}}}, nil
		case OpNE:
			return &datePredicate{ranges: []dateRange{{math.MinInt64, s - 1}, {e + 1, math.MaxInt64}}}, nil
		}
		return nil, fmt.Errorf("date filter: unsupported comparison operator")
	case ShapeRange:
		start, end := int64(math.MinInt64), int64(math.MaxInt64)
		if arg.RangeStart != nil {
			s, _, err := parseDateValue(*arg.RangeStart, today)
			if err != nil {
				return nil, err
			}
			start = s
		}
		if arg.RangeEnd != nil {
			_, e, err := parseDateValue(*arg.RangeEnd, today)
			if err != nil {
				return nil, err
			}
			end = e
		}
		return &datePredicate{ranges: []dateRange{{start, end}}}, nil
	default:
		s, e, err := parseDateValue(arg.Raw, today)
		if err != nil {
			return nil, err
		}
		return &datePredicate{ranges: []dateRange{{s, e}}}, nil
	}
}

func parseDateValue(raw string, today time.Time) (int64, int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, 0, fmt.Errorf("date filters require a value")
	}
	if spec, ok := LookupDateKeyword(trimmed); ok {
		s, e := keywordDateRange(spec, today)
		return s, e, nil
	}
	if t, ok := parseAbsoluteDate(trimmed); ok {
		s, e := dayBounds(t)
		return s, e, nil
	}
	return 0, 0, fmt.Errorf("unrecognized date literal: %s", trimmed)
}

func dayBounds(t time.Time) (int64, int64) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
	end := start.Add(24*time.Hour - time.Second)
	return start.Unix(), end.Unix()
}

func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func monthRange(y int, m time.Month) (int64, int64) {
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, -1)
	s, _ := dayBounds(start)
	_, e := dayBounds(end)
	return s, e
}

func yearRange(y int) (int64, int64) {
	start := time.Date(y, 1, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(y, 12, 31, 0, 0, 0, 0, time.Local)
	s, _ := dayBounds(start)
	_, e := dayBounds(end)
	return s, e
}

func keywordDateRange(spec DateKeywordSpec, today time.Time) (int64, int64) {
	if spec.Kind == DateKeywordTrailing {
		start := today.AddDate(0, 0, -spec.TrailingDays)
		s, _ := dayBounds(start)
		_, e := dayBounds(today)
		return s, e
	}
	switch spec.Name {
	case "today":
		return dayBounds(today)
	case "yesterday":
		return dayBounds(today.AddDate(0, 0, -1))
	case "thisweek":
		offset := mondayOffset(today)
		start := today.AddDate(0, 0, -offset)
		end := start.AddDate(0, 0, 6)
		s, _ := dayBounds(start)
		_, e := dayBounds(end)
		return s, e
	case "lastweek":
		offset := mondayOffset(today) + 7
		start := today.AddDate(0, 0, -offset)
		end := start.AddDate(0, 0, 6)
		s, _ := dayBounds(start)
		_, e := dayBounds(end)
		return s, e
	case "thismonth":
		return monthRange(today.Year(), today.Month())
	case "lastmonth":
		y, m := today.Year(), today.Month()
		if m == time.January {
			y--
			m = time.December
		} else {
			m--
		}
		return monthRange(y, m)
	case "thisyear":
		return yearRange(today.Year())
	case "lastyear":
		return yearRange(today.Year() - 1)
	}
	return 0, 0
}

// parseAbsoluteDate parses a date literal using '-', '/', or '.' as the
// separator, disambiguating day-first vs month-first vs year-first the
// way the source does: when the literal starts with a 4-digit year, the
// year-first layout is tried first.
func parseAbsoluteDate(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	var sep byte
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		if c == '-' || c == '/' || c == '.' {
			sep = c
			break
		}
	}
	if sep == 0 {
		return time.Time{}, false
	}
	startsWithYear := len(trimmed) >= 5 && allDigits(trimmed[:4]) && isDateSep(trimmed[4])
	for _, layout := range absoluteDateLayouts(sep, startsWithYear) {
		if t, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isDateSep(b byte) bool { return b == '-' || b == '/' || b == '.' }

func absoluteDateLayouts(sep byte, yearFirst bool) []string {
	switch sep {
	case '-':
		if yearFirst {
			return []string{"2006-01-02", "02-01-2006", "01-02-2006"}
		}
		return []string{"02-01-2006", "01-02-2006", "2006-01-02"}
	case '/':
		if yearFirst {
			return []string{"2006/01/02", "01/02/2006", "02/01/2006"}
		}
		return []string{"01/02/2006", "02/01/2006", "2006/01/02"}
	case '.':
		if yearFirst {
			return []string{"2006.01.02", "02.01.2006", "01.02.2006"}
		}
		return []string{"02.01.2006", "01.02.2006", "2006.01.02"}
	}
	return nil
}
