package spss

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

const headerSize = 176

// Compression codes stored in the file header.
const (
	CompressionNone     int32 = 0
	CompressionBytecode int32 = 1
	CompressionZlib     int32 = 2
)

// DefaultBias is the bias of bytecode compression in every known writer.
const DefaultBias = 100.0

// Header is the fixed-size record at the start of a system file.
type Header struct {
	Magic           string
	Product         string
	LayoutCode      int32
	NominalCaseSize int32
	Compression     int32
	WeightIndex     int32
	NCases          int32 // -1 when the writer did not know it
	Bias            float64
	CreationDate    string
	CreationTime    string
	FileLabel       string
	ByteOrder       binary.ByteOrder
}

// readHeader parses the header record and switches b to the byte order the
// layout code reveals.
func readHeader(b *binReader) (Header, error) {
	raw := make([]byte, headerSize)
	if err := b.readFull(raw); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrNotSystemFile, err)
	}

	h := Header{Magic: string(raw[0:4])}
	switch h.Magic {
	case "$FL2":
	case "$FL3":
		return h, fmt.Errorf("%w: zlib-compressed file", ErrUnsupportedCompression)
	default:
		return h, fmt.Errorf("%w: bad magic %q", ErrNotSystemFile, h.Magic)
	}

	layout := raw[64:68]
	switch {
	case isLayoutCode(int32(binary.LittleEndian.Uint32(layout))):
		h.ByteOrder = binary.LittleEndian
	case isLayoutCode(int32(binary.BigEndian.Uint32(layout))):
		h.ByteOrder = binary.BigEndian
	default:
		return h, fmt.Errorf("%w: unknown layout code", ErrNotSystemFile)
	}
	b.order = h.ByteOrder

	order := h.ByteOrder
	h.Product = trimField(raw[4:64])
	h.LayoutCode = int32(order.Uint32(raw[64:68]))
	h.NominalCaseSize = int32(order.Uint32(raw[68:72]))
	h.Compression = int32(order.Uint32(raw[72:76]))
	h.WeightIndex = int32(order.Uint32(raw[76:80]))
	h.NCases = int32(order.Uint32(raw[80:84]))
	h.Bias = math.Float64frombits(order.Uint64(raw[84:92]))
	h.CreationDate = trimField(raw[92:101])
	h.CreationTime = trimField(raw[101:109])
	h.FileLabel = trimField(raw[109:173])

	switch h.Compression {
	case CompressionNone, CompressionBytecode:
	case CompressionZlib:
		return h, fmt.Errorf("%w: zlib", ErrUnsupportedCompression)
	default:
		return h, fmt.Errorf("%w: code %d", ErrUnsupportedCompression, h.Compression)
	}
	if h.Bias == 0 {
		h.Bias = DefaultBias
	}

	return h, nil
}

func isLayoutCode(v int32) bool {
	return v == 2 || v == 3
}

// trimField strips the space and NUL padding of fixed-width fields.
func trimField(p []byte) string {
	return strings.TrimRight(string(bytes.TrimRight(p, "\x00")), " ")
}
