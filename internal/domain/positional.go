package domain

import (
	"strings"
	"time"
)

// decodePositional handles the whitespace-delimited format:
//
//	scan_no cond temp hull_temp [time_elapsed nmea_epoch latitude longitude]
func decodePositional(line string, capturedAt time.Time) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 && len(fields) != 8 {
		return Record{}, formatErrorf("Expected 4 or 8 fields, got %d", len(fields))
	}

	scanNo, err := parseIntField("scan_no", fields[0])
	if err != nil {
		return Record{}, err
	}
	cond, err := parseFloatField("cond", fields[1])
	if err != nil {
		return Record{}, err
	}
	temp, err := parseFloatField("temp", fields[2])
	if err != nil {
		return Record{}, err
	}
	hullTemp, err := parseFloatField("hull_temp", fields[3])
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		DatetimeUTC: capturedAt,
		ScanNo:      &scanNo,
		Cond:        cond,
		Temp:        temp,
		HullTemp:    hullTemp,
	}

	if len(fields) == 8 {
		elapsed, err := parseFloatField("time_elapsed", fields[4])
		if err != nil {
			return Record{}, err
		}
		nmeaTime, err := ParseEpochSeconds(fields[5])
		if err != nil {
			return Record{}, err
		}
		lat, err := parseFloatField("latitude", fields[6])
		if err != nil {
			return Record{}, err
		}
		lon, err := parseFloatField("longitude", fields[7])
		if err != nil {
			return Record{}, err
		}
		rec.TimeElapsed = &elapsed
		rec.NMEATime = &nmeaTime
		rec.Latitude = &lat
		rec.Longitude = &lon
	}

	salinity, err := SalinityFromConductivity(cond, temp, 0)
	if err != nil {
		return Record{}, err
	}
	rec.Salinity = salinity

	return rec, nil
}
