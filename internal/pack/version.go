package pack

import "time"

// VersionFromModTime asks Add/AddFile to derive the version from a timestamp
// (the source file's modification time, or now for in-memory payloads)
// instead of storing an explicit value.
const VersionFromModTime uint32 = 0xFFFFFFFF

// packedYearBase is the year stored as zero in a packed timestamp
const packedYearBase = 2010

// PackTime encodes t at four-minute resolution:
//
//	bits  0-3   minute / 4
//	bits  4-8   hour
//	bits  9-13  day of month
//	bits 14-17  month
//	bits 18-    year - 2010
//
// Local time fields are used. Years before 2010 pack as 2010.
func PackTime(t time.Time) uint32 {
	t = t.Local()

	year := t.Year() - packedYearBase
	if year < 0 {
		year = 0
	}

	return uint32(t.Minute()/4) |
		uint32(t.Hour())<<4 |
		uint32(t.Day())<<9 |
		uint32(t.Month())<<14 |
		uint32(year)<<18
}

// UnpackTime decodes a value produced by PackTime as local time.
// Values that were not produced by PackTime decode to an arbitrary, normalized time.
func UnpackTime(v uint32) time.Time {
	minute := int(v&0xF) * 4
	hour := int(v>>4) & 0x1F
	day := int(v>>9) & 0x1F
	month := time.Month((v >> 14) & 0xF)
	year := int(v>>18) + packedYearBase

	return time.Date(year, month, day, hour, minute, 0, 0, time.Local)
}

// IsPackedTime reports whether v has valid month, day, hour and minute
// fields, which is true of every PackTime result and of few small explicit
// version numbers
func IsPackedTime(v uint32) bool {
	minute := v & 0xF
	hour := (v >> 4) & 0x1F
	day := (v >> 9) & 0x1F
	month := (v >> 14) & 0xF
	return minute < 15 && hour < 24 && day >= 1 && month >= 1 && month <= 12
}
