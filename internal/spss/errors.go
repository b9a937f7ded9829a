package spss

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSystemFile is returned when the input does not start with an SPSS
	// system file header.
	ErrNotSystemFile = errors.New("not an SPSS system file")

	// ErrUnsupportedCompression is returned for zlib-compressed ($FL3) files.
	ErrUnsupportedCompression = errors.New("unsupported SPSS compression")

	// ErrTruncated is returned when the file ends inside a record or a case.
	ErrTruncated = errors.New("truncated SPSS system file")
)

// RecordError reports a malformed dictionary record.
type RecordError struct {
	RecordType int32
	Offset     int64
	Msg        string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("spss: record type %d at offset %d: %s", e.RecordType, e.Offset, e.Msg)
}
