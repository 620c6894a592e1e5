package domain

import "time"

// Schema is the persisted column order shared by every sink.
var Schema = []string{
	"datetime_utc",
	"scan_no",
	"cond",
	"temp",
	"salinity",
	"hull_temp",
	"time_elapsed",
	"nmea_time",
	"latitude",
	"longitude",
}

// Format identifies which wire format a line was decoded with.
type Format int

const (
	FormatUnknown Format = iota
	FormatPositional
	FormatKeyValue
)

func (f Format) String() string {
	switch f {
	case FormatPositional:
		return "positional"
	case FormatKeyValue:
		return "keyvalue"
	default:
		return "unknown"
	}
}

// RawLine is one line of instrument output as delivered by a line source.
type RawLine struct {
	Text       string
	Source     string
	Seq        int64
	ReceivedAt time.Time
}

// Record is one parsed TSG measurement. Nil pointer fields carry no value.
type Record struct {
	DatetimeUTC time.Time  `json:"datetime_utc"`
	ScanNo      *int64     `json:"scan_no"`
	Cond        float64    `json:"cond"`
	Temp        float64    `json:"temp"`
	Salinity    float64    `json:"salinity"`
	HullTemp    float64    `json:"hull_temp"`
	TimeElapsed *float64   `json:"time_elapsed"`
	NMEATime    *time.Time `json:"nmea_time"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`

	Format Format `json:"-"`
}
