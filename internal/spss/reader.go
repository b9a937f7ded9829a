package spss

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"transitcli/pkg/contracts/domain"
)

// File is a decoded system file.
type File struct {
	Header    Header
	Variables []*Variable
	Documents []string
	Encoding  string // declared character encoding, empty when the file has none
	Cases     [][]domain.Value
}

// ReadFile opens and decodes the system file at path.
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	file, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return file, nil
}

// Decode reads a whole system file from r. System-missing and user-missing
// values decode to Null. Strings are right-trimmed and converted to UTF-8; a
// blank string stays an empty string. Numbers with a date format become date
// strings. Value labels are kept on the variables but not applied.
func Decode(r io.Reader) (*File, error) {
	b := newBinReader(r)

	header, err := readHeader(b)
	if err != nil {
		return nil, err
	}

	dict, err := readDictionary(b)
	if err != nil {
		return nil, err
	}

	var src slotReader = &plainReader{b: b}
	if header.Compression == CompressionBytecode {
		src = newBytecodeReader(b, header.Bias, dict.sysmis)
	}

	conv := &converter{
		order:  header.ByteOrder,
		sysmis: dict.sysmis,
		text:   newTextDecoder(dict.encoding, dict.codePage),
	}

	cases, err := readCases(src, dict.variables, header.NCases, conv)
	if err != nil {
		return nil, err
	}

	return &File{
		Header:    header,
		Variables: dict.variables,
		Documents: dict.documents,
		Encoding:  dict.encoding,
		Cases:     cases,
	}, nil
}

// Columns returns the variable names in dictionary order.
func (f *File) Columns() []string {
	cols := make([]string, len(f.Variables))
	for i, v := range f.Variables {
		cols[i] = v.Name
	}
	return cols
}

// Table converts the cases to a domain table, one column per variable.
func (f *File) Table() *domain.Table {
	cols := f.Columns()
	t := domain.NewTable(cols...)
	t.Rows = make([]domain.Row, 0, len(f.Cases))
	for _, c := range f.Cases {
		row := make(domain.Row, len(cols))
		for i, v := range c {
			if !v.IsNull() {
				row[cols[i]] = v
			}
		}
		t.Append(row)
	}
	return t
}

// converter turns the raw slots of one variable into a value.
type converter struct {
	order  binary.ByteOrder
	sysmis float64
	text   textDecoder
}

func (c *converter) cell(v *Variable, raw []byte) domain.Value {
	if !v.IsNumeric() {
		s := string(bytes.TrimRight(raw[:v.Width], " \x00"))
		s = c.text.decode([]byte(s))
		if v.Missing.IsMissingString(s) {
			return domain.NullValue()
		}
		return domain.StringValue(s)
	}

	f := math.Float64frombits(c.order.Uint64(raw))
	if f == c.sysmis || v.Missing.IsMissingNumber(f) {
		return domain.NullValue()
	}
	if v.Print.IsDate() {
		if s, ok := FormatDateValue(v.Print, f); ok {
			return domain.StringValue(s)
		}
		return domain.NullValue()
	}
	return domain.NumberValue(f)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
