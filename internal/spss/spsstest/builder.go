// Package spsstest writes small SPSS system files for tests.
package spsstest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const bias = 100.0

// Var describes one variable of the file being built.
type Var struct {
	Name        string // written as a long name when it is not a valid short name
	Width       int    // 0 for numeric
	Label       string
	Format      int32 // packed print format; zero picks F8.2 or A<width>
	Missing     []float64
	MissingLow  *float64 // with MissingHigh, a missing range
	MissingHigh *float64
	MissingStr  []string
	ValueLabels map[float64]string
}

// Builder assembles a system file in memory.
type Builder struct {
	order        binary.ByteOrder
	compressed   bool
	encodingName string
	codePage     int32
	unknownCount bool
	documents    []string
	vars         []Var
	rows         [][]interface{}
}

// New returns a little-endian, uncompressed builder.
func New() *Builder {
	return &Builder{order: binary.LittleEndian}
}

// BigEndian writes every field most significant byte first.
func (b *Builder) BigEndian() *Builder {
	b.order = binary.BigEndian
	return b
}

// Compressed enables bytecode compression.
func (b *Builder) Compressed() *Builder {
	b.compressed = true
	return b
}

// Encoding writes a character encoding record and encodes text with it.
func (b *Builder) Encoding(name string) *Builder {
	b.encodingName = name
	return b
}

// CodePage writes a machine integer record with the given character code.
func (b *Builder) CodePage(cp int32) *Builder {
	b.codePage = cp
	return b
}

// UnknownCaseCount writes -1 as the case count, as streaming writers do.
func (b *Builder) UnknownCaseCount() *Builder {
	b.unknownCount = true
	return b
}

// Document adds document lines.
func (b *Builder) Document(lines ...string) *Builder {
	b.documents = append(b.documents, lines...)
	return b
}

// Numeric adds a numeric variable.
func (b *Builder) Numeric(name string) *Builder {
	return b.Var(Var{Name: name})
}

// String adds a string variable of the given width.
func (b *Builder) String(name string, width int) *Builder {
	return b.Var(Var{Name: name, Width: width})
}

// Var adds a fully described variable.
func (b *Builder) Var(v Var) *Builder {
	b.vars = append(b.vars, v)
	return b
}

// Row adds a case. Numeric cells take float64 or int, string cells take
// string; nil is system-missing or blank.
func (b *Builder) Row(values ...interface{}) *Builder {
	b.rows = append(b.rows, values)
	return b
}

// DateSeconds converts t to the seconds-since-1582-10-14 of SPSS dates.
func DateSeconds(t time.Time) float64 {
	epoch := time.Date(1582, time.October, 14, 0, 0, 0, 0, time.UTC)
	return float64(t.Unix() - epoch.Unix())
}

// DateFormat packs a print format of the given type and width.
func DateFormat(typ, width int) int32 {
	return int32(typ<<16 | width<<8)
}

// WriteFile writes the file to path.
func (b *Builder) WriteFile(path string) error {
	data, err := b.Build()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Bytes is Build for tests that cannot fail.
func (b *Builder) Bytes() []byte {
	data, err := b.Build()
	if err != nil {
		panic(err)
	}
	return data
}

// Build encodes the file.
func (b *Builder) Build() ([]byte, error) {
	enc, err := b.textEncoding()
	if err != nil {
		return nil, err
	}
	w := &writer{order: b.order, enc: enc}

	shortNames := b.shortNames()
	b.writeHeader(w)
	for i, v := range b.vars {
		if err := b.writeVariable(w, v, shortNames[i]); err != nil {
			return nil, err
		}
	}
	b.writeValueLabels(w)
	if len(b.documents) > 0 {
		w.int32(6)
		w.int32(int32(len(b.documents)))
		for _, line := range b.documents {
			w.padded(line, 80)
		}
	}
	b.writeExtensions(w, shortNames)
	w.int32(999)
	w.int32(0)

	if err := b.writeData(w); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

func (b *Builder) textEncoding() (encoding.Encoding, error) {
	if b.encodingName == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(b.encodingName)
	if err != nil {
		return nil, fmt.Errorf("spsstest: encoding %q: %w", b.encodingName, err)
	}
	return enc, nil
}

func (b *Builder) shortNames() []string {
	names := make([]string, len(b.vars))
	for i, v := range b.vars {
		if isShortName(v.Name) {
			names[i] = v.Name
		} else {
			names[i] = fmt.Sprintf("V%d", i+1)
		}
	}
	return names
}

func isShortName(name string) bool {
	if name == "" || len(name) > 8 {
		return false
	}
	for _, r := range name {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

func slots(width int) int {
	if width == 0 {
		return 1
	}
	return (width + 7) / 8
}

func (b *Builder) caseSize() int {
	n := 0
	for _, v := range b.vars {
		n += slots(v.Width)
	}
	return n
}

func (b *Builder) writeHeader(w *writer) {
	w.raw([]byte("$FL2"))
	w.padded("@(#) SPSS DATA FILE spsstest", 60)
	w.int32(2)
	w.int32(int32(b.caseSize()))
	if b.compressed {
		w.int32(1)
	} else {
		w.int32(0)
	}
	w.int32(0)
	if b.unknownCount {
		w.int32(-1)
	} else {
		w.int32(int32(len(b.rows)))
	}
	w.float64(bias)
	w.padded("19 Oct 26", 9)
	w.padded("12:00:00", 8)
	w.padded("spsstest fixture", 64)
	w.raw([]byte{0, 0, 0})
}

func (b *Builder) writeVariable(w *writer, v Var, short string) error {
	format := v.Format
	if format == 0 {
		if v.Width == 0 {
			format = 5<<16 | 8<<8 | 2
		} else {
			format = int32(1<<16 | v.Width<<8)
		}
	}

	nMissing := int32(len(v.Missing) + len(v.MissingStr))
	if v.MissingLow != nil && v.MissingHigh != nil {
		nMissing = -2
		if len(v.Missing) > 0 {
			nMissing = -3
		}
	}

	hasLabel := int32(0)
	if v.Label != "" {
		hasLabel = 1
	}

	w.int32(2)
	w.int32(int32(v.Width))
	w.int32(hasLabel)
	w.int32(nMissing)
	w.int32(format)
	w.int32(format)
	w.padded(short, 8)

	if hasLabel == 1 {
		label, err := w.encode(v.Label)
		if err != nil {
			return err
		}
		w.int32(int32(len(label)))
		w.raw(label)
		w.raw(make([]byte, (4-len(label)%4)%4))
	}

	if nMissing < 0 {
		w.float64(*v.MissingLow)
		w.float64(*v.MissingHigh)
	}
	for _, m := range v.Missing {
		w.float64(m)
	}
	for _, m := range v.MissingStr {
		w.padded(m, 8)
	}

	for i := 1; i < slots(v.Width); i++ {
		w.int32(2)
		w.int32(-1)
		w.int32(0)
		w.int32(0)
		w.int32(format)
		w.int32(format)
		w.padded("", 8)
	}
	return nil
}

func (b *Builder) writeValueLabels(w *writer) {
	index := int32(1)
	for _, v := range b.vars {
		if len(v.ValueLabels) > 0 {
			values := make([]float64, 0, len(v.ValueLabels))
			for value := range v.ValueLabels {
				values = append(values, value)
			}
			sort.Float64s(values)

			w.int32(3)
			w.int32(int32(len(values)))
			for _, value := range values {
				w.float64(value)
				label, _ := w.encode(v.ValueLabels[value])
				w.raw([]byte{byte(len(label))})
				w.raw(label)
				w.raw(make([]byte, (8-(len(label)+1)%8)%8))
			}
			w.int32(4)
			w.int32(1)
			w.int32(index)
		}
		index += int32(slots(v.Width))
	}
}

func (b *Builder) writeExtensions(w *writer, shortNames []string) {
	if b.codePage != 0 {
		w.int32(7)
		w.int32(3)
		w.int32(4)
		w.int32(8)
		endian := int32(2)
		if b.order == binary.BigEndian {
			endian = 1
		}
		for _, field := range []int32{20, 0, 0, -1, 1, 1, endian, b.codePage} {
			w.int32(field)
		}
	}

	w.int32(7)
	w.int32(4)
	w.int32(8)
	w.int32(3)
	w.float64(-math.MaxFloat64)
	w.float64(math.MaxFloat64)
	w.float64(math.Nextafter(-math.MaxFloat64, 0))

	var pairs []string
	needed := false
	for i, v := range b.vars {
		pairs = append(pairs, shortNames[i]+"="+v.Name)
		if shortNames[i] != v.Name {
			needed = true
		}
	}
	if needed {
		data, _ := w.encode(strings.Join(pairs, "\t"))
		w.int32(7)
		w.int32(13)
		w.int32(1)
		w.int32(int32(len(data)))
		w.raw(data)
	}

	if b.encodingName != "" {
		w.int32(7)
		w.int32(20)
		w.int32(1)
		w.int32(int32(len(b.encodingName)))
		w.raw([]byte(b.encodingName))
	}
}

func (b *Builder) writeData(w *writer) error {
	var cw *compressor
	if b.compressed {
		cw = &compressor{w: w}
	}

	for n, row := range b.rows {
		if len(row) != len(b.vars) {
			return fmt.Errorf("spsstest: row %d has %d values for %d variables", n, len(row), len(b.vars))
		}
		for i, v := range b.vars {
			if v.Width == 0 {
				num, sysmis, err := numericCell(row[i])
				if err != nil {
					return fmt.Errorf("spsstest: row %d, %s: %w", n, v.Name, err)
				}
				if cw != nil {
					cw.number(num, sysmis)
				} else if sysmis {
					w.float64(-math.MaxFloat64)
				} else {
					w.float64(num)
				}
				continue
			}

			s, _ := row[i].(string)
			data, err := w.encode(s)
			if err != nil {
				return err
			}
			if len(data) > v.Width {
				data = data[:v.Width]
			}
			cell := make([]byte, slots(v.Width)*8)
			copy(cell, data)
			for j := len(data); j < len(cell); j++ {
				cell[j] = ' '
			}
			for j := 0; j < len(cell); j += 8 {
				if cw != nil {
					cw.chunk(cell[j : j+8])
				} else {
					w.raw(cell[j : j+8])
				}
			}
		}
	}

	if cw != nil {
		cw.finish()
	}
	return nil
}

func numericCell(v interface{}) (float64, bool, error) {
	switch n := v.(type) {
	case nil:
		return 0, true, nil
	case float64:
		return n, false, nil
	case int:
		return float64(n), false, nil
	default:
		return 0, false, fmt.Errorf("unsupported numeric cell %T", v)
	}
}

// compressor emits bytecode blocks: eight codes, then the raw slots they announce.
type compressor struct {
	w     *writer
	codes []byte
	raws  [][]byte
}

func (c *compressor) push(code byte, raw []byte) {
	c.codes = append(c.codes, code)
	if raw != nil {
		c.raws = append(c.raws, append([]byte(nil), raw...))
	}
	if len(c.codes) == 8 {
		c.flush()
	}
}

func (c *compressor) flush() {
	if len(c.codes) == 0 {
		return
	}
	for len(c.codes) < 8 {
		c.codes = append(c.codes, 0)
	}
	c.w.raw(c.codes)
	for _, r := range c.raws {
		c.w.raw(r)
	}
	c.codes = c.codes[:0]
	c.raws = c.raws[:0]
}

func (c *compressor) number(v float64, sysmis bool) {
	switch {
	case sysmis:
		c.push(255, nil)
	case v == math.Trunc(v) && v+bias >= 1 && v+bias <= 251:
		c.push(byte(v+bias), nil)
	default:
		raw := make([]byte, 8)
		c.w.order.PutUint64(raw, math.Float64bits(v))
		c.push(253, raw)
	}
}

func (c *compressor) chunk(p []byte) {
	if bytes.Equal(p, []byte("        ")) {
		c.push(254, nil)
		return
	}
	c.push(253, p)
}

func (c *compressor) finish() {
	c.push(252, nil)
	c.flush()
}

type writer struct {
	buf   bytes.Buffer
	order binary.ByteOrder
	enc   encoding.Encoding
}

func (w *writer) raw(p []byte) {
	w.buf.Write(p)
}

func (w *writer) int32(v int32) {
	var p [4]byte
	w.order.PutUint32(p[:], uint32(v))
	w.buf.Write(p[:])
}

func (w *writer) float64(v float64) {
	var p [8]byte
	w.order.PutUint64(p[:], math.Float64bits(v))
	w.buf.Write(p[:])
}

// padded writes s space-padded (or cut) to n bytes.
func (w *writer) padded(s string, n int) {
	data, err := w.encode(s)
	if err != nil {
		data = []byte(s)
	}
	if len(data) > n {
		data = data[:n]
	}
	w.buf.Write(data)
	w.buf.Write(bytes.Repeat([]byte(" "), n-len(data)))
}

func (w *writer) encode(s string) ([]byte, error) {
	if w.enc == nil {
		return []byte(s), nil
	}
	out, err := w.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("spsstest: encode %q: %w", s, err)
	}
	return out, nil
}
