package spss

import (
	"errors"
	"fmt"
	"io"
	"math"

	"transitcli/pkg/contracts/domain"
)

const (
	codeSkip    = 0
	codeEOF     = 252
	codeRaw     = 253
	codeSpaces  = 254
	codeSysmis  = 255
	slotSize    = 8
	blockLength = 8
)

// slotReader yields the 8-byte slots of the case data in file order.
// It returns io.EOF only at the end of the data.
type slotReader interface {
	next(slot []byte) error
}

// plainReader reads uncompressed case data.
type plainReader struct {
	b *binReader
}

func (p *plainReader) next(slot []byte) error {
	return p.b.readFull(slot)
}

// bytecodeReader expands bytecode-compressed case data: blocks of eight
// command bytes, each describing one slot, with raw slots after the block.
type bytecodeReader struct {
	b      *binReader
	bias   float64
	sysmis float64
	codes  [blockLength]byte
	pos    int
	done   bool
}

func newBytecodeReader(b *binReader, bias, sysmis float64) *bytecodeReader {
	return &bytecodeReader{b: b, bias: bias, sysmis: sysmis, pos: blockLength}
}

func (r *bytecodeReader) next(slot []byte) error {
	for {
		if r.done {
			return io.EOF
		}
		if r.pos == blockLength {
			if err := r.b.readFull(r.codes[:]); err != nil {
				if errors.Is(err, io.ErrUnexpectedEOF) {
					return fmt.Errorf("%w: partial command block", ErrTruncated)
				}
				return err
			}
			r.pos = 0
		}

		code := r.codes[r.pos]
		r.pos++

		switch code {
		case codeSkip:
			continue
		case codeEOF:
			r.done = true
			return io.EOF
		case codeRaw:
			return r.b.need(slot)
		case codeSpaces:
			for i := range slot {
				slot[i] = ' '
			}
			return nil
		case codeSysmis:
			r.b.order.PutUint64(slot, math.Float64bits(r.sysmis))
			return nil
		default:
			r.b.order.PutUint64(slot, math.Float64bits(float64(code)-r.bias))
			return nil
		}
	}
}

// readCases decodes every case. ncases < 0 reads until the data ends.
func readCases(src slotReader, vars []*Variable, ncases int32, conv *converter) ([][]domain.Value, error) {
	if len(vars) == 0 {
		return nil, nil
	}

	var cases [][]domain.Value
	if ncases > 0 {
		cases = make([][]domain.Value, 0, min(int(ncases), 1<<16))
	}

	slot := make([]byte, slotSize)
	for n := int32(0); ncases < 0 || n < ncases; n++ {
		row := make([]domain.Value, len(vars))
		for i, v := range vars {
			raw := make([]byte, 0, v.Slots()*slotSize)
			for s := 0; s < v.Slots(); s++ {
				if err := src.next(slot); err != nil {
					if errors.Is(err, io.EOF) && i == 0 && s == 0 {
						if ncases >= 0 && n < ncases {
							return cases, fmt.Errorf("%w: %d of %d cases", ErrTruncated, n, ncases)
						}
						return cases, nil
					}
					if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
						return cases, fmt.Errorf("%w: inside case %d", ErrTruncated, n+1)
					}
					return cases, err
				}
				raw = append(raw, slot...)
			}
			row[i] = conv.cell(v, raw)
		}
		cases = append(cases, row)
	}
	return cases, nil
}
