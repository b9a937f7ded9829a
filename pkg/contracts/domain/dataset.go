package domain

import (
	"fmt"
)

// FileFormat is the decoder a source file needs.
type FileFormat string

const (
	FormatSAV  FileFormat = "sav"
	FormatXLSX FileFormat = "xlsx"
)

// FormatFromExtension maps a lower-case extension (with the dot) to a format.
func FormatFromExtension(ext string) (FileFormat, bool) {
	switch ext {
	case ".sav":
		return FormatSAV, true
	case ".xlsx":
		return FormatXLSX, true
	default:
		return "", false
	}
}

// SourceFile is one classified input file.
type SourceFile struct {
	Path     string     `json:"path" validate:"required"`
	Name     string     `json:"name" validate:"required"`
	Category string     `json:"category" validate:"required"`
	Year     string     `json:"year" validate:"required"`
	Format   FileFormat `json:"format" validate:"required,oneof=sav xlsx"`
}

// ReadResult is the outcome of reading one SourceFile: either a Table or the
// reason it could not be read.
type ReadResult struct {
	File  SourceFile `json:"file"`
	Table *Table     `json:"-"`
	Err   error      `json:"-"`
}

// OK reports whether the file was read.
func (r ReadResult) OK() bool {
	return r.Err == nil && r.Table != nil
}

// Problem records a file that was classified but could not be read.
type Problem struct {
	Category string `json:"category"`
	File     string `json:"file"`
	Reason   string `json:"reason"`
}

// String formats the problem for console output.
func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.File, p.Reason)
}

// MergedDataset is the union of every readable file of one category.
// Table is nil when no file of the category could be read.
type MergedDataset struct {
	Category string       `json:"category"`
	Table    *Table       `json:"-"`
	Files    []SourceFile `json:"files"`
	Problems []Problem    `json:"problems,omitempty"`
	Years    []string     `json:"years"`
}

// Present reports whether the dataset holds a table to analyze and write.
func (d *MergedDataset) Present() bool {
	return d != nil && d.Table != nil
}
