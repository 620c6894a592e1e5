package domain

import (
	"strings"
	"time"
)

// requiredKeys lists the key/value fields every line must carry, in the order
// they are reported when missing.
var requiredKeys = []string{"t1", "c1", "t2", "s"}

// decodeKeyValue handles the comma-delimited key=value format. Salinity is
// taken from the "s" key as supplied; it is not derived.
func decodeKeyValue(line string, capturedAt time.Time) (Record, error) {
	pairs, err := splitPairs(line)
	if err != nil {
		return Record{}, err
	}

	var missing []string
	for _, k := range requiredKeys {
		if _, ok := pairs[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return Record{}, formatErrorf("missing required keys: %s", strings.Join(missing, ", "))
	}

	temp, err := parseFloatField("t1", pairs["t1"])
	if err != nil {
		return Record{}, err
	}
	cond, err := parseFloatField("c1", pairs["c1"])
	if err != nil {
		return Record{}, err
	}
	hullTemp, err := parseFloatField("t2", pairs["t2"])
	if err != nil {
		return Record{}, err
	}
	salinity, err := parseFloatField("s", pairs["s"])
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		DatetimeUTC: capturedAt,
		Cond:        cond,
		Temp:        temp,
		Salinity:    salinity,
		HullTemp:    hullTemp,
	}

	if v := pairs["lat"]; v != "" {
		lat, err := ParseDegreesMinutes(v, Latitude)
		if err != nil {
			return Record{}, err
		}
		rec.Latitude = &lat
	}
	if v := pairs["lon"]; v != "" {
		lon, err := ParseDegreesMinutes(v, Longitude)
		if err != nil {
			return Record{}, err
		}
		rec.Longitude = &lon
	}

	hms, hasHMS := pairs["hms"]
	dmy, hasDMY := pairs["dmy"]
	if hasHMS && hasDMY {
		t, err := ParseHMSDMY(hms, dmy)
		if err != nil {
			return Record{}, err
		}
		rec.NMEATime = &t
	}

	return rec, nil
}

// splitPairs splits "k1=v1, k2 = v2" into a map. Values are split on the first
// "=" only; later keys overwrite earlier ones.
func splitPairs(line string) (map[string]string, error) {
	pairs := make(map[string]string)
	for _, seg := range strings.Split(line, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		key, value, ok := strings.Cut(seg, "=")
		if !ok {
			return nil, formatErrorf("malformed key/value pair %q", seg)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, formatErrorf("malformed key/value pair %q: empty key", seg)
		}
		pairs[key] = strings.TrimSpace(value)
	}
	return pairs, nil
}
