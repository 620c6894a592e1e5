package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// parseFloatField parses a required numeric field. NaN and infinities are
// rejected because no sink can store them meaningfully.
func parseFloatField(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, valueErrorf(err, "invalid %s", name)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, valueErrorf(nil, "invalid %s %q: not a finite number", name, s)
	}
	return v, nil
}

func parseIntField(name, s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, valueErrorf(err, "invalid %s", name)
	}
	return v, nil
}

// Unix seconds of 0001-01-01T00:00:00Z and 9999-12-31T23:59:59Z, the span
// RFC 3339 can represent.
const (
	minEpochSeconds = -62135596800
	maxEpochSeconds = 253402300799
)

// ParseEpochSeconds converts an integer Unix timestamp in seconds to UTC.
func ParseEpochSeconds(s string) (time.Time, error) {
	secs, err := parseIntField("nmea_time", s)
	if err != nil {
		return time.Time{}, err
	}
	if secs < minEpochSeconds || secs > maxEpochSeconds {
		return time.Time{}, valueErrorf(nil, "nmea_time %d out of range", secs)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// Axis selects which hemisphere letters a coordinate may carry.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

// ParseDegreesMinutes converts "DEGREES MINUTES DIRECTION" (e.g. "41 31.4341 N")
// to signed decimal degrees. South and West are negative.
func ParseDegreesMinutes(s string, axis Axis) (float64, error) {
	tokens := strings.Fields(s)
	if len(tokens) != 3 {
		return 0, valueErrorf(nil, "malformed coordinate %q: expected DEGREES MINUTES DIRECTION", s)
	}

	deg, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return 0, valueErrorf(err, "malformed coordinate %q", s)
	}
	mins, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		return 0, valueErrorf(err, "malformed coordinate %q", s)
	}
	if deg < 0 || mins < 0 || mins >= 60 || math.IsNaN(deg) || math.IsNaN(mins) {
		return 0, valueErrorf(nil, "malformed coordinate %q: degrees or minutes out of range", s)
	}

	limit := 90.0
	if axis == Longitude {
		limit = 180.0
	}
	dec := deg + mins/60.0
	if dec > limit {
		return 0, valueErrorf(nil, "malformed coordinate %q: exceeds %g degrees", s, limit)
	}

	switch dir := strings.ToUpper(tokens[2]); {
	case axis == Latitude && dir == "N", axis == Longitude && dir == "E":
		return dec, nil
	case axis == Latitude && dir == "S", axis == Longitude && dir == "W":
		return -dec, nil
	default:
		return 0, valueErrorf(nil, "malformed coordinate %q: invalid direction %q", s, tokens[2])
	}
}

// ParseHMSDMY combines a time of day "HHMMSS" and a date "DDMMYY" into a UTC
// timestamp. Two-digit years are taken as 2000+YY.
func ParseHMSDMY(hms, dmy string) (time.Time, error) {
	if len(hms) != 6 {
		return time.Time{}, valueErrorf(nil, "malformed time of day %q: expected 6 digits HHMMSS", hms)
	}
	if len(dmy) != 6 {
		return time.Time{}, valueErrorf(nil, "malformed date %q: expected 6 digits DDMMYY", dmy)
	}

	hh, ok1 := twoDigits(hms[0:2])
	mi, ok2 := twoDigits(hms[2:4])
	ss, ok3 := twoDigits(hms[4:6])
	if !ok1 || !ok2 || !ok3 || hh > 23 || mi > 59 || ss > 59 {
		return time.Time{}, valueErrorf(nil, "malformed time of day %q", hms)
	}

	dd, ok1 := twoDigits(dmy[0:2])
	mo, ok2 := twoDigits(dmy[2:4])
	yy, ok3 := twoDigits(dmy[4:6])
	if !ok1 || !ok2 || !ok3 || mo < 1 || mo > 12 || dd < 1 {
		return time.Time{}, valueErrorf(nil, "malformed date %q", dmy)
	}

	t := time.Date(2000+yy, time.Month(mo), dd, hh, mi, ss, 0, time.UTC)
	// time.Date normalizes overflow, e.g. 31 February becomes 3 March.
	if t.Day() != dd {
		return time.Time{}, valueErrorf(nil, "malformed date %q: day out of range", dmy)
	}
	return t, nil
}

func twoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}
