package dataprocessing

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitcli/internal/config"
	"transitcli/internal/infrastructure"
	"transitcli/internal/spss/spsstest"
	"transitcli/pkg/contracts/domain"
)

// stubReader serves prepared results by file name
type stubReader struct {
	tables map[string]*domain.Table
	calls  []string
}

func (s *stubReader) Read(_ context.Context, file domain.SourceFile) domain.ReadResult {
	s.calls = append(s.calls, file.Name)
	if t, ok := s.tables[file.Name]; ok {
		return domain.ReadResult{File: file, Table: t}
	}
	return domain.ReadResult{File: file, Err: errors.New("cannot decode")}
}

func table(cols []string, rows ...[]domain.Value) *domain.Table {
	t := domain.NewTable(cols...)
	for _, r := range rows {
		row := make(domain.Row)
		for i, v := range r {
			if !v.IsNull() {
				row[cols[i]] = v
			}
		}
		t.Append(row)
	}
	return t
}

func num(f float64) domain.Value { return domain.NumberValue(f) }
func str(s string) domain.Value  { return domain.StringValue(s) }

func src(name, year string) domain.SourceFile {
	return domain.SourceFile{
		Path:     filepath.Join("/data", name),
		Name:     name,
		Category: "hechos_transito",
		Year:     year,
		Format:   domain.FormatSAV,
	}
}

func TestMerger_UnionByName(t *testing.T) {
	reader := &stubReader{tables: map[string]*domain.Table{
		"hechos_transito_2018.sav":  table([]string{"A", "B"}, []domain.Value{num(1), num(2)}, []domain.Value{num(3), num(4)}),
		"hechos_transito_2019.xlsx": table([]string{"B", "C"}, []domain.Value{num(5), str("c")}),
	}}

	files := []domain.SourceFile{src("hechos_transito_2019.xlsx", "2019"), src("hechos_transito_2018.sav", "2018")}
	ds := NewMerger(reader, "unknown", nil).Merge(context.Background(), "hechos_transito", files)

	require.True(t, ds.Present())
	assert.Equal(t, []string{"hechos_transito_2018.sav", "hechos_transito_2019.xlsx"}, reader.calls, "files are read in path order")

	merged := ds.Table
	assert.Equal(t, []string{"A", "B", "C", "año", "archivo_origen", "tipo_dataset"}, merged.Columns)
	require.Equal(t, 3, merged.Len())

	assert.Equal(t, num(1), merged.Get(0, "A"))
	assert.True(t, merged.Get(0, "C").IsNull())
	assert.True(t, merged.Get(2, "A").IsNull())
	assert.Equal(t, str("c"), merged.Get(2, "C"))

	assert.Equal(t, str("2018"), merged.Get(0, "año"))
	assert.Equal(t, str("2019"), merged.Get(2, "año"))
	assert.Equal(t, str("hechos_transito_2018.sav"), merged.Get(1, "archivo_origen"))
	for i := 0; i < merged.Len(); i++ {
		assert.Equal(t, str("hechos_transito"), merged.Get(i, "tipo_dataset"))
		assert.False(t, merged.Get(i, "archivo_origen").IsNull())
	}

	assert.Equal(t, []string{"2018", "2019"}, ds.Years)
	assert.Len(t, ds.Files, 2)
	assert.Empty(t, ds.Problems)
}

func TestMerger_RecordsProblems(t *testing.T) {
	reader := &stubReader{tables: map[string]*domain.Table{
		"hechos_transito_2019.sav": table([]string{"A"}, []domain.Value{num(1)}),
	}}

	files := []domain.SourceFile{src("hechos_transito_2018.sav", "2018"), src("hechos_transito_2019.sav", "2019")}
	ds := NewMerger(reader, "unknown", nil).Merge(context.Background(), "hechos_transito", files)

	require.True(t, ds.Present())
	assert.Equal(t, 1, ds.Table.Len())
	assert.Equal(t, []domain.Problem{{
		Category: "hechos_transito",
		File:     "hechos_transito_2018.sav",
		Reason:   "cannot decode",
	}}, ds.Problems)
	require.Len(t, ds.Files, 1)
	assert.Equal(t, "hechos_transito_2019.sav", ds.Files[0].Name)
}

func TestMerger_NoReadableFiles(t *testing.T) {
	reader := &stubReader{}

	ds := NewMerger(reader, "unknown", nil).Merge(context.Background(), "vehiculos_involucrados",
		[]domain.SourceFile{src("vehiculos_involucrados_2019.sav", "2019")})

	assert.False(t, ds.Present())
	assert.Nil(t, ds.Table)
	assert.Len(t, ds.Problems, 1)

	empty := NewMerger(reader, "unknown", nil).Merge(context.Background(), "vehiculos_involucrados", nil)
	assert.False(t, empty.Present())
	assert.Empty(t, empty.Problems)
}

func TestMerger_YearFallsBackToFileName(t *testing.T) {
	reader := &stubReader{tables: map[string]*domain.Table{
		"fallecidos_lesionados_2020.sav": table([]string{"A"}, []domain.Value{num(1)}),
		"fallecidos_lesionados.sav":      table([]string{"A"}, []domain.Value{num(2)}),
	}}

	files := []domain.SourceFile{src("fallecidos_lesionados_2020.sav", ""), src("fallecidos_lesionados.sav", "")}
	ds := NewMerger(reader, "Desconocido", nil).Merge(context.Background(), "fallecidos_lesionados", files)

	require.True(t, ds.Present())
	assert.Equal(t, []string{"2020", "Desconocido"}, ds.Years)
}

func TestMerger_RowCountIsSumOfReadableFiles(t *testing.T) {
	reader := &stubReader{tables: map[string]*domain.Table{
		"a_2015.sav": table([]string{"X"}, []domain.Value{num(1)}, []domain.Value{num(2)}),
		"b_2016.sav": table([]string{"Y"}, []domain.Value{num(3)}, []domain.Value{num(4)}, []domain.Value{num(5)}),
		"c_2017.sav": table([]string{"X", "Z"}),
	}}

	files := []domain.SourceFile{src("a_2015.sav", "2015"), src("b_2016.sav", "2016"), src("c_2017.sav", "2017"), src("d_2018.sav", "2018")}
	ds := NewMerger(reader, "unknown", nil).Merge(context.Background(), "hechos_transito", files)

	require.True(t, ds.Present())
	assert.Equal(t, 5, ds.Table.Len())
	assert.ElementsMatch(t, append([]string{"X", "Y", "Z"}, config.MetadataColumns()...), ds.Table.Columns)
	assert.Len(t, ds.Problems, 1)
}

func TestMerger_RealFilesWithTelemetry(t *testing.T) {
	dir := t.TempDir()

	savPath := filepath.Join(dir, "hechos_transito_2018.sav")
	require.NoError(t, spsstest.New().Numeric("A").Numeric("B").Row(1, 2).Row(3, 4).WriteFile(savPath))

	xlsxPath := filepath.Join(dir, "hechos_transito_2019.xlsx")
	writeWorkbook(t, xlsxPath, [][]interface{}{{"B", "C"}, {5, "c"}})

	broken := filepath.Join(dir, "hechos_transito_2020.sav")
	writeFile(t, broken, "broken")

	tel, err := infrastructure.InitializeTelemetry(config.TelemetryConfig{TraceExporter: "none"}, "test", nil, nil)
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	files := []domain.SourceFile{
		{Path: xlsxPath, Name: "hechos_transito_2019.xlsx", Category: "hechos_transito", Year: "2019", Format: domain.FormatXLSX},
		{Path: broken, Name: "hechos_transito_2020.sav", Category: "hechos_transito", Year: "2020", Format: domain.FormatSAV},
		{Path: savPath, Name: "hechos_transito_2018.sav", Category: "hechos_transito", Year: "2018", Format: domain.FormatSAV},
	}

	ds := NewMerger(NewReader(nil), "unknown", nil).WithTelemetry(tel).
		Merge(context.Background(), "hechos_transito", files)

	require.True(t, ds.Present())
	assert.Equal(t, []string{"A", "B", "C", "año", "archivo_origen", "tipo_dataset"}, ds.Table.Columns)
	assert.Equal(t, 3, ds.Table.Len())
	require.Len(t, ds.Problems, 1)
	assert.Equal(t, "hechos_transito_2020.sav", ds.Problems[0].File)

	metrics := filepath.Join(dir, "transit.prom")
	require.NoError(t, tel.WriteMetricsFile(metrics))
	content := readFile(t, metrics)
	assert.Contains(t, content, `transit_files_read_total{category="hechos_transito",status="ok"} 2`)
	assert.Contains(t, content, `transit_files_read_total{category="hechos_transito",status="failed"} 1`)
	assert.Contains(t, content, `transit_rows_merged_total{category="hechos_transito"} 3`)
}
