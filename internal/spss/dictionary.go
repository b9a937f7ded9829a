package spss

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Dictionary record types.
const (
	recVariable      int32 = 2
	recValueLabels   int32 = 3
	recLabelVars     int32 = 4
	recDocument      int32 = 6
	recExtension     int32 = 7
	recDictTerminate int32 = 999
)

// Extension record subtypes the decoder interprets.
const (
	extIntegerInfo   int32 = 3
	extFloatInfo     int32 = 4
	extLongNames     int32 = 13
	extCharEncoding  int32 = 20
	documentLineSize       = 80

	// upper bound on any single record, to fail fast on garbage
	maxRecordLength = 1 << 26
)

// Variable describes one column of the file.
type Variable struct {
	Name        string // long name when the file has one
	ShortName   string
	Label       string
	Width       int // 0 for numeric variables
	Print       Format
	Write       Format
	Missing     Missing
	ValueLabels map[string]string // keyed by the rendered value

	slot     int // index of the first 8-byte slot in a case
	rawName  []byte
	rawLabel []byte
}

// IsNumeric reports whether the variable holds numbers.
func (v *Variable) IsNumeric() bool {
	return v.Width == 0
}

// Slots is the number of 8-byte case slots the variable occupies.
func (v *Variable) Slots() int {
	if v.Width == 0 {
		return 1
	}
	return roundUp(v.Width, 8) / 8
}

// Missing holds the user-missing values declared for a variable.
type Missing struct {
	Discrete []float64
	Strings  []string
	HasRange bool
	Low      float64
	High     float64
}

// IsMissingNumber reports whether v is one of the declared missing values.
func (m Missing) IsMissingNumber(v float64) bool {
	if m.HasRange && v >= m.Low && v <= m.High {
		return true
	}
	for _, d := range m.Discrete {
		if v == d {
			return true
		}
	}
	return false
}

// IsMissingString reports whether the trimmed string is a declared missing value.
func (m Missing) IsMissingString(s string) bool {
	for _, d := range m.Strings {
		if s == d {
			return true
		}
	}
	return false
}

// dictionary accumulates the records between the header and the data.
type dictionary struct {
	order       binary.ByteOrder
	variables   []*Variable
	slotOwner   map[int]*Variable // first slot index (1-based, as records refer to it)
	slots       int
	documents   []string
	encoding    string
	codePage    int32
	sysmis      float64
	longNames   []byte
	labelSets   []valueLabelSet
	pendingSets []valueLabelSet
}

type valueLabelSet struct {
	entries []valueLabel
	vars    []int32
}

type valueLabel struct {
	raw   [8]byte
	label []byte
}

func readDictionary(b *binReader) (*dictionary, error) {
	d := &dictionary{
		order:     b.order,
		slotOwner: make(map[int]*Variable),
		sysmis:    -math.MaxFloat64,
	}

	for {
		start := b.offset
		recType, err := b.int32()
		if err != nil {
			return nil, err
		}

		switch recType {
		case recVariable:
			err = d.readVariable(b, start)
		case recValueLabels:
			err = d.readValueLabels(b)
		case recLabelVars:
			err = d.readLabelVars(b, start)
		case recDocument:
			err = d.readDocument(b)
		case recExtension:
			err = d.readExtension(b)
		case recDictTerminate:
			_, err = b.int32()
			if err == nil {
				return d, d.finish()
			}
		default:
			return nil, &RecordError{RecordType: recType, Offset: start, Msg: "unknown record type"}
		}
		if err != nil {
			return nil, err
		}
	}
}

func (d *dictionary) readVariable(b *binReader, start int64) error {
	var fields [5]int32
	for i := range fields {
		v, err := b.int32()
		if err != nil {
			return err
		}
		fields[i] = v
	}
	typ, hasLabel, nMissing, printFmt, writeFmt := fields[0], fields[1], fields[2], fields[3], fields[4]

	name, err := b.bytes(8)
	if err != nil {
		return err
	}

	var label []byte
	if hasLabel == 1 {
		n, err := b.int32()
		if err != nil {
			return err
		}
		if n < 0 || n > maxRecordLength {
			return &RecordError{RecordType: recVariable, Offset: start, Msg: fmt.Sprintf("bad label length %d", n)}
		}
		raw, err := b.bytes(roundUp(int(n), 4))
		if err != nil {
			return err
		}
		label = raw[:n]
	}

	missingCount := int(nMissing)
	if missingCount < 0 {
		missingCount = -missingCount
	}
	if nMissing == -1 || missingCount > 3 {
		return &RecordError{RecordType: recVariable, Offset: start, Msg: fmt.Sprintf("bad missing value count %d", nMissing)}
	}
	missingRaw := make([][]byte, missingCount)
	for i := range missingRaw {
		if missingRaw[i], err = b.bytes(8); err != nil {
			return err
		}
	}

	d.slots++
	if typ == -1 {
		// continuation of the previous long string
		return nil
	}
	if typ < 0 || typ > 255 {
		return &RecordError{RecordType: recVariable, Offset: start, Msg: fmt.Sprintf("bad variable type %d", typ)}
	}

	v := &Variable{
		Width:    int(typ),
		Print:    ParseFormat(printFmt),
		Write:    ParseFormat(writeFmt),
		slot:     d.slots - 1,
		rawName:  name,
		rawLabel: label,
	}
	v.Missing = d.parseMissing(b, v, nMissing, missingRaw)

	d.variables = append(d.variables, v)
	d.slotOwner[d.slots] = v
	return nil
}

func (d *dictionary) parseMissing(b *binReader, v *Variable, n int32, raw [][]byte) Missing {
	var m Missing
	if !v.IsNumeric() {
		// strings carry only discrete values; decoded with the file encoding later
		for _, r := range raw {
			m.Strings = append(m.Strings, string(bytes.TrimRight(r, " ")))
		}
		return m
	}

	values := make([]float64, len(raw))
	for i, r := range raw {
		values[i] = math.Float64frombits(b.order.Uint64(r))
	}
	if n < 0 {
		m.HasRange = true
		m.Low, m.High = values[0], values[1]
		values = values[2:]
	}
	m.Discrete = values
	return m
}

func (d *dictionary) readValueLabels(b *binReader) error {
	count, err := b.int32()
	if err != nil {
		return err
	}
	if count < 0 || count > maxRecordLength {
		return &RecordError{RecordType: recValueLabels, Offset: b.offset, Msg: fmt.Sprintf("bad label count %d", count)}
	}

	set := valueLabelSet{entries: make([]valueLabel, 0, count)}
	for i := int32(0); i < count; i++ {
		var entry valueLabel
		if err := b.need(entry.raw[:]); err != nil {
			return err
		}
		n, err := b.bytes(1)
		if err != nil {
			return err
		}
		// length byte plus label padded to a multiple of 8
		padded, err := b.bytes(roundUp(int(n[0])+1, 8) - 1)
		if err != nil {
			return err
		}
		entry.label = padded[:n[0]]
		set.entries = append(set.entries, entry)
	}
	d.pendingSets = append(d.pendingSets, set)
	return nil
}

func (d *dictionary) readLabelVars(b *binReader, start int64) error {
	count, err := b.int32()
	if err != nil {
		return err
	}
	if len(d.pendingSets) == 0 {
		return &RecordError{RecordType: recLabelVars, Offset: start, Msg: "no preceding value label record"}
	}

	set := d.pendingSets[len(d.pendingSets)-1]
	d.pendingSets = d.pendingSets[:len(d.pendingSets)-1]
	for i := int32(0); i < count; i++ {
		idx, err := b.int32()
		if err != nil {
			return err
		}
		set.vars = append(set.vars, idx)
	}
	d.labelSets = append(d.labelSets, set)
	return nil
}

func (d *dictionary) readDocument(b *binReader) error {
	n, err := b.int32()
	if err != nil {
		return err
	}
	if n < 0 || n > maxRecordLength/documentLineSize {
		return &RecordError{RecordType: recDocument, Offset: b.offset, Msg: fmt.Sprintf("bad line count %d", n)}
	}
	for i := int32(0); i < n; i++ {
		line, err := b.bytes(documentLineSize)
		if err != nil {
			return err
		}
		d.documents = append(d.documents, string(bytes.TrimRight(line, " ")))
	}
	return nil
}

func (d *dictionary) readExtension(b *binReader) error {
	subtype, err := b.int32()
	if err != nil {
		return err
	}
	size, err := b.int32()
	if err != nil {
		return err
	}
	count, err := b.int32()
	if err != nil {
		return err
	}
	length := int64(size) * int64(count)
	if size < 0 || count < 0 || length > maxRecordLength {
		return &RecordError{RecordType: recExtension, Offset: b.offset, Msg: fmt.Sprintf("bad extension size %d x %d", size, count)}
	}

	switch subtype {
	case extIntegerInfo:
		data, err := b.bytes(int(length))
		if err != nil {
			return err
		}
		if size == 4 && count >= 8 {
			d.codePage = int32(b.order.Uint32(data[28:32]))
		}
	case extFloatInfo:
		data, err := b.bytes(int(length))
		if err != nil {
			return err
		}
		if size == 8 && count >= 1 {
			d.sysmis = math.Float64frombits(b.order.Uint64(data[0:8]))
		}
	case extLongNames:
		if d.longNames, err = b.bytes(int(length)); err != nil {
			return err
		}
	case extCharEncoding:
		data, err := b.bytes(int(length))
		if err != nil {
			return err
		}
		d.encoding = strings.TrimSpace(string(data))
	default:
		// very long strings (14), attributes and the rest are not needed to
		// read the values
		return b.skip(length)
	}
	return nil
}

// finish decodes names and labels with the file encoding and attaches long
// names and value labels.
func (d *dictionary) finish() error {
	text := newTextDecoder(d.encoding, d.codePage)

	byShort := make(map[string]*Variable, len(d.variables))
	for _, v := range d.variables {
		v.ShortName = strings.TrimRight(text.decode(v.rawName), " \x00")
		v.Name = v.ShortName
		if v.rawLabel != nil {
			v.Label = strings.TrimRight(text.decode(v.rawLabel), " ")
		}
		for i, s := range v.Missing.Strings {
			v.Missing.Strings[i] = text.decode([]byte(s))
		}
		byShort[strings.ToUpper(v.ShortName)] = v
	}

	if d.longNames != nil {
		for _, pair := range strings.Split(text.decode(d.longNames), "\t") {
			short, long, ok := strings.Cut(pair, "=")
			if !ok || long == "" {
				continue
			}
			if v, found := byShort[strings.ToUpper(strings.TrimSpace(short))]; found {
				v.Name = strings.TrimRight(long, "\x00 ")
			}
		}
	}

	for _, set := range d.labelSets {
		for _, idx := range set.vars {
			v, ok := d.slotOwner[int(idx)]
			if !ok {
				return &RecordError{RecordType: recLabelVars, Msg: fmt.Sprintf("no variable at index %d", idx)}
			}
			if v.ValueLabels == nil {
				v.ValueLabels = make(map[string]string, len(set.entries))
			}
			for _, entry := range set.entries {
				v.ValueLabels[d.labelKey(v, entry.raw, text)] = text.decode(entry.label)
			}
		}
	}

	for i, doc := range d.documents {
		d.documents[i] = text.decode([]byte(doc))
	}
	return nil
}

func (d *dictionary) labelKey(v *Variable, raw [8]byte, text textDecoder) string {
	if v.IsNumeric() {
		return formatNumber(math.Float64frombits(d.order.Uint64(raw[:])))
	}
	return strings.TrimRight(text.decode(raw[:]), " ")
}
