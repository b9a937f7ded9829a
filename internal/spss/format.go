package spss

import (
	"fmt"
	"math"
	"time"
)

// Format types of the print/write format fields that hold dates.
const (
	FormatF        = 5
	FormatA        = 1
	FormatDate     = 20
	FormatTime     = 21
	FormatDateTime = 22
	FormatADate    = 23
	FormatJDate    = 24
	FormatEDate    = 38
	FormatSDate    = 39
)

// gregorianEpoch is the origin of SPSS date values, in Unix seconds.
var gregorianEpoch = time.Date(1582, time.October, 14, 0, 0, 0, 0, time.UTC).Unix()

// Format is a decoded print or write format: (type<<16)|(width<<8)|decimals.
type Format struct {
	Type     int
	Width    int
	Decimals int
}

// ParseFormat splits the packed format field.
func ParseFormat(packed int32) Format {
	u := uint32(packed)
	return Format{
		Type:     int(u >> 16 & 0xff),
		Width:    int(u >> 8 & 0xff),
		Decimals: int(u & 0xff),
	}
}

// Pack is the inverse of ParseFormat.
func (f Format) Pack() int32 {
	return int32(uint32(f.Type&0xff)<<16 | uint32(f.Width&0xff)<<8 | uint32(f.Decimals&0xff))
}

// IsDate reports whether numeric values with this format are dates or times.
func (f Format) IsDate() bool {
	switch f.Type {
	case FormatDate, FormatADate, FormatJDate, FormatEDate, FormatSDate, FormatDateTime, FormatTime:
		return true
	}
	return false
}

// FormatDateValue renders seconds since 1582-10-14 for the given format:
// dates as 2006-01-02, DATETIME as 2006-01-02 15:04:05 and TIME as a
// duration HH:MM:SS. ok is false for values that are not finite.
func FormatDateValue(f Format, seconds float64) (string, bool) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "", false
	}

	if f.Type == FormatTime {
		return formatDuration(seconds), true
	}

	whole := math.Floor(seconds)
	t := time.Unix(gregorianEpoch+int64(whole), 0).UTC()
	if f.Type == FormatDateTime {
		return t.Format("2006-01-02 15:04:05"), true
	}
	return t.Format("2006-01-02"), true
}

func formatDuration(seconds float64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	total := int64(math.Floor(seconds))
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, total/3600, total%3600/60, total%60)
}
