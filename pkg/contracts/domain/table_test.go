package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableOf(cols []string, rows ...[]Value) *Table {
	t := NewTable(cols...)
	for _, r := range rows {
		row := make(Row)
		for i, v := range r {
			row[cols[i]] = v
		}
		t.Append(row)
	}
	return t
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", NullValue(), ""},
		{"string", StringValue("Guatemala"), "Guatemala"},
		{"integer number", NumberValue(2019), "2019"},
		{"fractional number", NumberValue(12.5), "12.5"},
		{"negative number", NumberValue(-3.25), "-3.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
	assert.True(t, Value{}.IsNull())
	assert.False(t, StringValue("").IsNull())
}

func TestConcat_UnionByName(t *testing.T) {
	a := tableOf([]string{"A", "B"},
		[]Value{NumberValue(1), StringValue("x")},
		[]Value{NumberValue(2), StringValue("y")},
	)
	b := tableOf([]string{"B", "C"},
		[]Value{StringValue("z"), NumberValue(9)},
	)

	merged := Concat(a, b)

	assert.Equal(t, []string{"A", "B", "C"}, merged.Columns)
	require.Equal(t, 3, merged.Len())

	assert.True(t, merged.Get(0, "C").IsNull())
	assert.True(t, merged.Get(1, "C").IsNull())
	assert.True(t, merged.Get(2, "A").IsNull())
	assert.Equal(t, "z", merged.Get(2, "B").String())
	assert.Equal(t, "9", merged.Get(2, "C").String())

	assert.Equal(t, 1, merged.NullCount("A"))
	assert.Equal(t, 0, merged.NullCount("B"))
	assert.Equal(t, 2, merged.NullCount("C"))

	// inputs untouched
	assert.Equal(t, []string{"A", "B"}, a.Columns)
	assert.Len(t, a.Rows[0], 2)
}

func TestConcat_SkipsNilAndEmpty(t *testing.T) {
	a := tableOf([]string{"A"}, []Value{NumberValue(1)})
	merged := Concat(nil, a, NewTable("B"))

	assert.Equal(t, []string{"A", "B"}, merged.Columns)
	assert.Equal(t, 1, merged.Len())
	assert.Equal(t, 0, Concat().Len())
}

func TestTable_AddConstantColumnAndMoveToEnd(t *testing.T) {
	tbl := tableOf([]string{"año", "A", "B"},
		[]Value{StringValue("2018"), NumberValue(1), NullValue()},
	)
	tbl.AddConstantColumn("tipo_dataset", StringValue("hechos_transito"))
	tbl.MoveToEnd("año", "missing", "tipo_dataset")

	assert.Equal(t, []string{"A", "B", "año", "tipo_dataset"}, tbl.Columns)
	assert.Equal(t, []string{"1", "", "2018", "hechos_transito"}, tbl.Record(0))

	// adding an existing column only overwrites values
	tbl.AddConstantColumn("A", NumberValue(7))
	assert.Equal(t, 4, tbl.Width())
	assert.Equal(t, "7", tbl.Get(0, "A").String())
}

func TestTable_DistinctStrings(t *testing.T) {
	tbl := tableOf([]string{"año"},
		[]Value{StringValue("2019")},
		[]Value{StringValue("2018")},
		[]Value{NullValue()},
		[]Value{StringValue("2019")},
	)
	assert.Equal(t, []string{"2018", "2019"}, tbl.DistinctStrings("año"))
}

func TestFormatFromExtension(t *testing.T) {
	f, ok := FormatFromExtension(".sav")
	assert.True(t, ok)
	assert.Equal(t, FormatSAV, f)

	f, ok = FormatFromExtension(".xlsx")
	assert.True(t, ok)
	assert.Equal(t, FormatXLSX, f)

	_, ok = FormatFromExtension(".csv")
	assert.False(t, ok)
}

func TestMergedDataset_Present(t *testing.T) {
	var absent *MergedDataset
	assert.False(t, absent.Present())
	assert.False(t, (&MergedDataset{Category: "x"}).Present())
	assert.True(t, (&MergedDataset{Category: "x", Table: NewTable()}).Present())
}
