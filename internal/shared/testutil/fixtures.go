package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"transitcli/internal/spss/spsstest"
)

// Fixture file names written by WriteInputDir
const (
	FixtureSAV2018     = "hechos_transito_2018.sav"
	FixtureXLSX2019    = "hechos_transito_2019.xlsx"
	FixtureCorruptSAV  = "fallecidos_lesionados_2019.sav"
	FixtureIgnoredFile = "notas.txt"
)

// WriteWorkbook saves rows to the first sheet of a new workbook at path. nil
// cells are left empty.
func WriteWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, val := range row {
			if val == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, val))
		}
	}

	require.NoError(t, f.SaveAs(path))
}

// WriteInputDir creates a directory holding a small traffic accident data set:
//
//	hechos_transito_2018.sav       A (numeric), B (string), two cases
//	hechos_transito_2019.xlsx      B, C, one row
//	fallecidos_lesionados_2019.sav not an SPSS file
//	notas.txt                      ignored by the classifier
//
// No vehiculos_involucrados file is present.
func WriteInputDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, spsstest.New().Compressed().
		Numeric("A").String("B", 8).
		Row(1, "x").Row(2, "y").
		WriteFile(filepath.Join(dir, FixtureSAV2018)))

	WriteWorkbook(t, filepath.Join(dir, FixtureXLSX2019), [][]interface{}{
		{"B", "C"},
		{"z", 10},
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, FixtureCorruptSAV), []byte("not spss"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FixtureIgnoredFile), []byte("notes"), 0644))

	return dir
}
