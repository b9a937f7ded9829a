package dataprocessing

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitcli/pkg/contracts/domain"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestAnalyzeTable(t *testing.T) {
	tbl := table([]string{"A", "B", "C"},
		[]domain.Value{num(1), domain.NullValue(), str("x")},
		[]domain.Value{domain.NullValue(), domain.NullValue(), str("y")},
		[]domain.Value{num(3), num(4), str("z")},
		[]domain.Value{num(4), domain.NullValue(), str("w")},
	)

	report := AnalyzeTable("hechos_transito", tbl)

	assert.Equal(t, "hechos_transito", report.Category)
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, []string{"A", "B", "C"}, report.Columns)
	assert.Equal(t, []ColumnNulls{
		{Column: "A", Count: 1, Percent: 25},
		{Column: "B", Count: 3, Percent: 75},
	}, report.Nulls)
}

func TestAnalyzer_Analyze(t *testing.T) {
	datasets := map[string]*domain.MergedDataset{
		"hechos_transito": {
			Category: "hechos_transito",
			Table:    table([]string{"A"}, []domain.Value{num(1)}, []domain.Value{domain.NullValue()}),
		},
		"vehiculos_involucrados": {Category: "vehiculos_involucrados"},
		"fallecidos_lesionados": {
			Category: "fallecidos_lesionados",
			Table:    table([]string{"Z"}, []domain.Value{str("z")}),
		},
	}
	order := []string{"hechos_transito", "vehiculos_involucrados", "fallecidos_lesionados", "missing"}

	var logs bytes.Buffer
	reports := NewAnalyzer(slog.New(slog.NewJSONHandler(&logs, nil))).Analyze(context.Background(), order, datasets)

	require.Len(t, reports, 2)
	assert.Equal(t, "hechos_transito", reports[0].Category)
	assert.Equal(t, []ColumnNulls{{Column: "A", Count: 1, Percent: 50}}, reports[0].Nulls)
	assert.Equal(t, "fallecidos_lesionados", reports[1].Category)
	assert.Empty(t, reports[1].Nulls)

	assert.Contains(t, logs.String(), `"msg":"Null values"`)
	assert.Contains(t, logs.String(), `"percent":50`)

	// the input is left untouched
	assert.Equal(t, 2, datasets["hechos_transito"].Table.Len())
	assert.Equal(t, []string{"A"}, datasets["hechos_transito"].Table.Columns)
}
