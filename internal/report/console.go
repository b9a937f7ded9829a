// Package report prints the human readable side of a merge run as tables.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"transitcli/internal/dataprocessing"
	"transitcli/internal/files"
	"transitcli/pkg/contracts/domain"
)

// StatusMissing marks a category without any readable file in the final tally.
const StatusMissing = "No procesado"

// Console renders human readable progress of a merge run.
type Console struct {
	out io.Writer
}

// NewConsole writes to out, or to stdout when out is nil.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

// Section prints a title underlined to its width.
func (c *Console) Section(title string) {
	fmt.Fprintf(c.out, "\n%s\n%s\n", title, strings.Repeat("=", len([]rune(title))))
}

// Classification lists the files found for each category in order.
func (c *Console) Classification(cls *files.Classification) {
	c.Section("Archivos encontrados")

	table := c.newTable([]string{"Categoría", "Archivos", "Años"})
	for _, category := range cls.Categories {
		sources := cls.Get(category)
		years := make([]string, 0, len(sources))
		for _, f := range sources {
			years = append(years, f.Year)
		}
		table.Append([]string{category, humanize.Comma(int64(len(sources))), strings.Join(years, ", ")})
	}
	table.Render()

	for _, category := range cls.Categories {
		for _, f := range cls.Get(category) {
			fmt.Fprintf(c.out, "  [%s] %s\n", category, f.Name)
		}
	}

	if len(cls.Skipped) > 0 {
		fmt.Fprintf(c.out, "%s archivos ignorados\n", humanize.Comma(int64(len(cls.Skipped))))
	}
}

// Merged prints the outcome of merging one category.
func (c *Console) Merged(ds *domain.MergedDataset) {
	if !ds.Present() {
		fmt.Fprintf(c.out, "%s: sin archivos legibles\n", categoryOf(ds))
		return
	}

	fmt.Fprintf(c.out, "%s: %s filas, %d columnas, años %s\n",
		ds.Category,
		humanize.Comma(int64(ds.Table.Len())),
		ds.Table.Width(),
		strings.Join(ds.Years, ", "))
	fmt.Fprintf(c.out, "  columnas: %s\n", strings.Join(ds.Table.Columns, ", "))
}

// Structure prints the columns and null counts of each analyzed dataset.
func (c *Console) Structure(reports []dataprocessing.StructureReport) {
	c.Section("Análisis de estructura")

	for _, r := range reports {
		fmt.Fprintf(c.out, "\n%s: %s filas, %d columnas\n", r.Category, humanize.Comma(int64(r.Rows)), len(r.Columns))
		fmt.Fprintf(c.out, "  columnas: %s\n", strings.Join(r.Columns, ", "))

		if len(r.Nulls) == 0 {
			fmt.Fprintln(c.out, "  sin valores nulos")
			continue
		}

		table := c.newTable([]string{"Columna", "Nulos", "Porcentaje"})
		for _, n := range r.Nulls {
			table.Append([]string{n.Column, humanize.Comma(int64(n.Count)), fmt.Sprintf("%.1f%%", n.Percent)})
		}
		table.Render()
	}
}

// Summary prints the final tally of every configured category. Categories
// without a dataset are marked StatusMissing.
func (c *Console) Summary(order []string, datasets map[string]*domain.MergedDataset, written map[string]string) {
	c.Section("Resumen final")

	table := c.newTable([]string{"Categoría", "Filas", "Columnas", "Archivos", "Problemas", "Estado"})
	for _, category := range order {
		ds := datasets[category]
		problems := 0
		if ds != nil {
			problems = len(ds.Problems)
		}

		if !ds.Present() {
			table.Append([]string{category, "-", "-", "0", humanize.Comma(int64(problems)), StatusMissing})
			continue
		}

		status := "OK"
		if path, ok := written[category]; ok {
			status = path
		}
		table.Append([]string{
			category,
			humanize.Comma(int64(ds.Table.Len())),
			humanize.Comma(int64(ds.Table.Width())),
			humanize.Comma(int64(len(ds.Files))),
			humanize.Comma(int64(problems)),
			status,
		})
	}
	table.Render()
}

// Problems lists the files that could not be read, if any.
func (c *Console) Problems(problems []domain.Problem) {
	if len(problems) == 0 {
		return
	}

	c.Section("Archivos con problemas")
	table := c.newTable([]string{"Categoría", "Archivo", "Error"})
	for _, p := range problems {
		table.Append([]string{p.Category, p.File, p.Reason})
	}
	table.Render()
}

func (c *Console) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func categoryOf(ds *domain.MergedDataset) string {
	if ds == nil {
		return "?"
	}
	return ds.Category
}
