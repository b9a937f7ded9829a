package spss

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// binReader reads fixed-size fields in the byte order of the file and keeps
// the offset for error messages.
type binReader struct {
	r      *bufio.Reader
	order  binary.ByteOrder
	offset int64
	buf    [8]byte
}

func newBinReader(r io.Reader) *binReader {
	return &binReader{r: bufio.NewReaderSize(r, 64*1024), order: binary.LittleEndian}
}

// readFull fills p. io.EOF is returned only when nothing was read.
func (b *binReader) readFull(p []byte) error {
	n, err := io.ReadFull(b.r, p)
	b.offset += int64(n)
	return err
}

// need is readFull for fields that must be present.
func (b *binReader) need(p []byte) error {
	if err := b.readFull(p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w at offset %d", ErrTruncated, b.offset)
		}
		return err
	}
	return nil
}

func (b *binReader) int32() (int32, error) {
	if err := b.need(b.buf[:4]); err != nil {
		return 0, err
	}
	return int32(b.order.Uint32(b.buf[:4])), nil
}

func (b *binReader) float64() (float64, error) {
	if err := b.need(b.buf[:8]); err != nil {
		return 0, err
	}
	return math.Float64frombits(b.order.Uint64(b.buf[:8])), nil
}

func (b *binReader) bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("spss: negative length %d at offset %d", n, b.offset)
	}
	p := make([]byte, n)
	if err := b.need(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (b *binReader) skip(n int64) error {
	if n < 0 {
		return fmt.Errorf("spss: negative length %d at offset %d", n, b.offset)
	}
	copied, err := io.CopyN(io.Discard, b.r, n)
	b.offset += copied
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w at offset %d", ErrTruncated, b.offset)
		}
		return err
	}
	return nil
}

// roundUp rounds n up to a multiple of m.
func roundUp(n, m int) int {
	return (n + m - 1) / m * m
}
