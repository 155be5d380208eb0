// Package export writes exhibitor records as a table file in the fixed
// column order. The format follows the file extension.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/use-agent/fairscrape/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the xlsx writer fills.
const SheetName = "Sheet1"

// Formats lists the supported file extensions.
var Formats = []string{".xlsx", ".csv", ".md"}

// Write writes a header row and one row per record to path, replacing any
// existing file. An unsupported extension is an INVALID_INPUT error, a write
// failure an EXPORT_FAILED error.
func Write(path string, records []models.ExhibitorRecord) error {
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		err = writeXLSX(path, records)
	case ".csv":
		err = writeCSV(path, records)
	case ".md":
		err = writeMarkdown(path, records)
	default:
		return models.NewScrapeError(
			models.ErrCodeInvalidInput,
			fmt.Sprintf("unsupported output format %q (want one of %s)", ext, strings.Join(Formats, ", ")),
			nil,
		)
	}
	if err != nil {
		return models.NewScrapeError(models.ErrCodeExport, "failed to write "+path, err)
	}
	return nil
}

func writeXLSX(path string, records []models.ExhibitorRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, 1, models.Header()); err != nil {
		return err
	}
	for i := range records {
		if err := setRow(f, i+2, records[i].Row()); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func setRow(f *excelize.File, row int, values []string) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, records []models.ExhibitorRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.Header()); err != nil {
		return err
	}
	for i := range records {
		if err := w.Write(records[i].Row()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeMarkdown(path string, records []models.ExhibitorRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	summary := models.Summarize(records, 0)
	md := markdown.NewMarkdown(f)
	md.H1("Exhibitors")
	md.PlainText("")

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Records", strconv.Itoa(summary.Total)},
			{"With email", strconv.Itoa(summary.WithEmail)},
			{"With phone", strconv.Itoa(summary.WithPhone)},
			{"With website", strconv.Itoa(summary.WithWebsite)},
		},
	})
	md.PlainText("")

	md.H2("Records")
	md.PlainText("")
	rows := make([][]string, len(records))
	for i := range records {
		row := records[i].Row()
		for c := range row {
			row[c] = escapeCell(row[c])
		}
		rows[i] = row
	}
	md.Table(markdown.TableSet{Header: models.Header(), Rows: rows})

	if err := md.Build(); err != nil {
		return err
	}
	return f.Close()
}

// escapeCell keeps a value inside its table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
