// Package domain parses thermosalinograph (TSG) instrument output into
// normalized measurement records and derives practical salinity.
//
// # Wire Formats
//
// Two firmware revisions are in the field and both may appear on the same
// serial line over the life of an instrument. A line is classified by shape
// before it is decoded: a line containing "=" is key/value, anything else is
// positional.
//
// Positional (whitespace-delimited, 4 or 8 fields):
//
//	scan_no cond temp hull_temp [time_elapsed nmea_epoch latitude longitude]
//	1234 4.56 12.34 11.98 3600.5 1749519966 -42.1234 147.8901
//	1235 4.57 12.35 11.99
//
// Salinity is not on the wire and is derived from cond/temp at zero pressure.
//
// Key/value (comma-delimited, any order, whitespace around "=" ignored):
//
//	t1= 12.3456, c1= 4.56789, t2= 12.1000, s= 35.1234, lat=41 31.4341 N, lon=070 40.3335 W, hms=210916, dmy=110825
//
// Required keys are t1 (temperature), c1 (conductivity), t2 (hull temperature)
// and s (salinity, taken as supplied). lat/lon are "DEGREES MINUTES DIRECTION".
// hms (HHMMSS) and dmy (DDMMYY, year 2000+YY) together give the NMEA fix time;
// either one alone is ignored.
//
// # Units
//
// Conductivity is in S/m as reported by the SBE 45 family, temperature in
// ITS-90 degrees Celsius, pressure in decibars. Salinity uses the Practical
// Salinity Scale 1978 with the Hill et al. (1986) extension below 2.
//
// # Errors
//
// Every rejected line yields a *ParseError. Its cause matches exactly one of
// ErrFormat (shape mismatch), ErrValue (a field failed conversion) or
// ErrDomain (salinity inputs out of range) under errors.Is.
//
// # Absent Values
//
// Record fields that a format does not carry are nil pointers so every record
// has the same column set regardless of the line it came from.
package domain
