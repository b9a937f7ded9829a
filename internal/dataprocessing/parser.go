package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"transitcli/pkg/contracts/domain"
)

// ParseWorkbook reads the first worksheet of an xlsx file into a table. The
// first row holds the column names; every following row that is not entirely
// blank becomes a table row. Cells are read unformatted, except that numbers
// styled as dates or times are rendered as ISO 8601 text.
func ParseWorkbook(filePath string) (*domain.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no worksheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	cells, err := newCellReader(f, sheets[0])
	if err != nil {
		return nil, err
	}

	return rowsToTable(rows, cells.value), nil
}

// rowsToTable builds a table from raw sheet rows, the first being the header.
// value converts the non-empty cell at 1-based (col, row).
func rowsToTable(rows [][]string, value func(col, row int, cell string) domain.Value) *domain.Table {
	if len(rows) == 0 {
		return domain.NewTable()
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	columns := headerNames(rows[0], width)
	table := domain.NewTable(columns...)

	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		record := make(domain.Row, len(row))
		for j, cell := range row {
			// GetRows drops trailing empty cells, so short rows read as Null
			if cell == "" {
				continue
			}
			if v := value(j+1, i+2, cell); !v.IsNull() {
				record[columns[j]] = v
			}
		}
		table.Append(record)
	}

	return table
}

// headerNames names every column: empty header cells become "Unnamed: <i>"
// and repeated names get ".1", ".2" suffixes in order of appearance.
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)
	counts := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}

		if used[name] {
			base := name
			n := counts[base]
			for {
				name = fmt.Sprintf("%s.%d", base, n)
				if !used[name] {
					break
				}
				n++
			}
			counts[base] = n + 1
		} else {
			counts[name] = 1
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// parseCell maps an empty cell to Null and a numeric-looking cell to Number.
// Codes written with leading zeros ("0101") stay strings.
func parseCell(cell string) domain.Value {
	if cell == "" {
		return domain.NullValue()
	}
	trimmed := strings.TrimSpace(cell)
	if !looksNumeric(trimmed) {
		return domain.StringValue(cell)
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return domain.StringValue(cell)
	}
	return domain.NumberValue(f)
}

func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return false
	}
	for _, r := range digits {
		if !(r >= '0' && r <= '9' || r == '.' || r == 'e' || r == 'E' || r == '+' || r == '-') {
			return false
		}
	}
	return strings.ContainsAny(digits, "0123456789")
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// dateKind is what a cell's number format says about its value.
type dateKind uint8

const (
	notDate dateKind = iota
	dateOnly
	dateTime
	timeOnly
)

// cellReader types the raw cell text of one worksheet. Numeric cells are
// checked against their style so booleans and dates keep their meaning.
type cellReader struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	kinds    map[int]dateKind
}

func newCellReader(f *excelize.File, sheet string) (*cellReader, error) {
	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook properties: %w", err)
	}

	r := &cellReader{f: f, sheet: sheet, kinds: make(map[int]dateKind)}
	if props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}
	return r, nil
}

func (r *cellReader) value(col, row int, cell string) domain.Value {
	v := parseCell(cell)
	if v.Kind != domain.KindNumber {
		return v
	}

	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return v
	}

	typ, err := r.f.GetCellType(r.sheet, name)
	if err != nil {
		return v
	}
	switch typ {
	case excelize.CellTypeBool:
		if v.Num != 0 {
			return domain.StringValue("TRUE")
		}
		return domain.StringValue("FALSE")
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
	default:
		// numeric-looking text keeps its number reading, never a date
		return v
	}

	kind := r.kindOf(name)
	if kind == notDate {
		return v
	}
	if s, ok := formatExcelDate(v.Num, kind, r.date1904); ok {
		return domain.StringValue(s)
	}
	return v
}

// kindOf looks up the number format of a cell, caching by style index.
func (r *cellReader) kindOf(cell string) dateKind {
	idx, err := r.f.GetCellStyle(r.sheet, cell)
	if err != nil || idx == 0 {
		return notDate
	}
	if kind, ok := r.kinds[idx]; ok {
		return kind
	}

	kind := notDate
	if style, err := r.f.GetStyle(idx); err == nil && style != nil {
		kind = numFmtKind(style.NumFmt, style.CustomNumFmt)
	}
	r.kinds[idx] = kind
	return kind
}

// numFmtKind classifies a built-in number format id, or the custom format
// code when one is set.
func numFmtKind(id int, custom *string) dateKind {
	if custom != nil {
		return customFmtKind(*custom)
	}
	switch {
	case id >= 14 && id <= 17, id >= 27 && id <= 31, id >= 34 && id <= 36, id >= 50 && id <= 58:
		return dateOnly
	case id == 22:
		return dateTime
	case id >= 18 && id <= 21, id == 32, id == 33, id >= 45 && id <= 47:
		return timeOnly
	}
	return notDate
}

// customFmtKind looks for date and time tokens in a format code, ignoring
// quoted literals, escaped characters and bracketed modifiers such as [Red].
// Only the first section (positive numbers) is considered.
func customFmtKind(code string) dateKind {
	var hasDate, hasTime bool
	inQuote := false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case c == '"':
			inQuote = true
		case c == '\\' || c == '_' || c == '*':
			i++
		case c == '[':
			end := strings.IndexByte(code[i:], ']')
			if end < 0 {
				return notDate
			}
			// elapsed time such as [h]:mm
			switch strings.ToLower(code[i+1 : i+end]) {
			case "h", "hh", "m", "mm", "s", "ss":
				hasTime = true
			}
			i += end
		case c == ';':
			i = len(code)
		default:
			switch c | 0x20 {
			case 'y', 'd':
				hasDate = true
			case 'h', 's':
				hasTime = true
			}
		}
	}

	switch {
	case hasDate && hasTime:
		return dateTime
	case hasDate:
		return dateOnly
	case hasTime:
		return timeOnly
	}
	return notDate
}

// formatExcelDate renders an Excel serial date the way SPSS dates are
// written: 2006-01-02, 2006-01-02 15:04:05 or 15:04:05.
func formatExcelDate(serial float64, kind dateKind, date1904 bool) (string, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 {
		return "", false
	}
	if kind == timeOnly {
		secs := int64(math.Round((serial - math.Floor(serial)) * 86400))
		if secs == 86400 {
			secs = 0
		}
		return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60), true
	}

	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return "", false
	}
	if kind == dateTime {
		return t.Format("2006-01-02 15:04:05"), true
	}
	return t.Format("2006-01-02"), true
}
