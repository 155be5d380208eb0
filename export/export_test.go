package export

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/use-agent/fairscrape/models"
	"github.com/xuri/excelize/v2"
)

var wantHeader = []string{
	"Exhibitor Name", "Country", "Contact Person", "Email", "Phone",
	"Website", "Address", "Hall/Stand", "Profile URL",
}

func sampleRecords() []models.ExhibitorRecord {
	return []models.ExhibitorRecord{
		{
			URL:           "https://fair.example/exhibitor/acme",
			Name:          "Acme Verlag",
			Country:       "Germany",
			ContactPerson: "Contact: Jane Doe",
			Email:         "info@acme.example",
			Phone:         "+49 341 1234567",
			Website:       "www.acme.example",
			Address:       "Messeallee 1, 04356 Leipzig",
			HallStand:     "Hall 3, Stand C101",
		},
		// Only the address is known.
		{URL: "https://fair.example/exhibitor/empty"},
	}
}

func readXLSX(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return rows
}

func TestWrite_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exhibitors.xlsx")
	records := sampleRecords()

	if err := Write(path, records); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	rows := readXLSX(t, path)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Errorf("header = %v, want %v", rows[0], wantHeader)
	}
	if !reflect.DeepEqual(rows[1], records[0].Row()) {
		t.Errorf("row 1 = %v, want %v", rows[1], records[0].Row())
	}
	if got := rows[2][len(rows[2])-1]; got != "https://fair.example/exhibitor/empty" {
		t.Errorf("row 2 profile URL = %q", got)
	}
}

func TestWrite_XLSXHeaderWithoutRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := Write(path, nil); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	rows := readXLSX(t, path)
	if len(rows) != 1 || !reflect.DeepEqual(rows[0], wantHeader) {
		t.Errorf("rows = %v, want only the header", rows)
	}
}

func TestWrite_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exhibitors.xlsx")
	if err := Write(path, sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if err := Write(path, sampleRecords()[:1]); err != nil {
		t.Fatal(err)
	}
	if rows := readXLSX(t, path); len(rows) != 2 {
		t.Errorf("rows after overwrite = %d, want 2", len(rows))
	}
}

func TestWrite_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exhibitors.csv")
	records := sampleRecords()
	if err := Write(path, records); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Errorf("header = %v", rows[0])
	}
	// Commas inside a field survive quoting.
	if rows[1][6] != "Messeallee 1, 04356 Leipzig" {
		t.Errorf("address = %q", rows[1][6])
	}
	if len(rows[2]) != len(wantHeader) {
		t.Errorf("empty record has %d columns, want %d", len(rows[2]), len(wantHeader))
	}
}

func TestWrite_Markdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exhibitors.md")
	if err := Write(path, sampleRecords()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	for _, want := range []string{"# Exhibitors", "## Summary", "With email", "Acme Verlag", "Hall/Stand", "Profile URL"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "exhibitors.json"), sampleRecords())

	var se *models.ScrapeError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *models.ScrapeError", err)
	}
	if se.Code != models.ErrCodeInvalidInput {
		t.Errorf("Code = %q, want %q", se.Code, models.ErrCodeInvalidInput)
	}
}

func TestWrite_UnwritablePath(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "missing-dir", "out.csv"), sampleRecords())

	var se *models.ScrapeError
	if !errors.As(err, &se) || se.Code != models.ErrCodeExport {
		t.Fatalf("err = %v, want EXPORT_FAILED", err)
	}
}

func TestEscapeCell(t *testing.T) {
	if got := escapeCell("A | B\nC"); got != `A \| B C` {
		t.Errorf("escapeCell() = %q", got)
	}
}
