package domain

import (
	"strings"
	"time"
)

// lineFormat is one member of the closed set of wire formats. match must be a
// cheap shape check; decode owns all validation for its format.
type lineFormat struct {
	format Format
	match  func(line string) bool
	decode func(line string, capturedAt time.Time) (Record, error)
}

// formats is tried in order. Positional is the catch-all and must stay last.
var formats = []lineFormat{
	{format: FormatKeyValue, match: isKeyValue, decode: decodeKeyValue},
	{format: FormatPositional, match: func(string) bool { return true }, decode: decodePositional},
}

func isKeyValue(line string) bool {
	return strings.Contains(line, "=")
}

// DetectFormat reports which format ParseLine would use for line.
func DetectFormat(line string) Format {
	line = strings.TrimSpace(line)
	if line == "" {
		return FormatUnknown
	}
	for _, f := range formats {
		if f.match(line) {
			return f.format
		}
	}
	return FormatUnknown
}

// ParseLine decodes one line of instrument output. On failure it returns the
// zero Record and a *ParseError; no partially filled record is ever returned.
// ParseLine holds no state and is safe for concurrent use.
func ParseLine(line string) (Record, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Record{}, &ParseError{Line: line, Err: formatErrorf("empty line")}
	}

	capturedAt := clock.Now().UTC().Truncate(time.Second)
	for _, f := range formats {
		if !f.match(trimmed) {
			continue
		}
		rec, err := f.decode(trimmed, capturedAt)
		if err != nil {
			return Record{}, &ParseError{Line: line, Format: f.format, Err: err}
		}
		rec.Format = f.format
		return rec, nil
	}
	return Record{}, &ParseError{Line: line, Err: formatErrorf("unrecognized line shape")}
}
