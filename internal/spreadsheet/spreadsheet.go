// Package spreadsheet converts word banks to and from .xlsx and .csv files.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"palabras/internal/models"
)

// MaxImportRows bounds a single upload
const MaxImportRows = 1000

// ErrTooManyRows is returned for uploads above MaxImportRows
var ErrTooManyRows = fmt.Errorf("spreadsheet has more than %d rows", MaxImportRows)

// ErrEmpty is returned when a file has no data rows
var ErrEmpty = errors.New("spreadsheet has no rows")

var exportHeader = []interface{}{"Term", "Category", "Definition", "Part of speech", "Mastery", "Added"}

// headerWords mark a first row that names columns instead of holding data
var headerWords = map[string]bool{"term": true, "palabra": true, "word": true, "término": true}

// Row is one imported word: term, category and definition columns
type Row struct {
	Term       string
	Category   string
	Definition string
}

// Export writes items as an .xlsx workbook with a bold header row
func Export(w io.Writer, items []models.VocabularyItem) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "C", 28); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			item.Term,
			item.Category,
			item.PrimaryDefinition,
			string(item.PartOfSpeech),
			item.MasteryScore,
			item.CreatedAt.Format("2006-01-02"),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Parse reads rows from an uploaded file. Files named *.csv are read as
// CSV, everything else as an .xlsx workbook (first sheet). A header row is
// detected and skipped; rows with an empty term are dropped.
func Parse(r io.Reader, filename string) ([]Row, error) {
	var (
		records [][]string
		err     error
	)
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		records, err = readCSV(r)
	} else {
		records, err = readWorkbook(r)
	}
	if err != nil {
		return nil, err
	}

	if len(records) > 0 && len(records[0]) > 0 && headerWords[strings.ToLower(strings.TrimSpace(records[0][0]))] {
		records = records[1:]
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		row := Row{
			Term:       column(record, 0),
			Category:   column(record, 1),
			Definition: column(record, 2),
		}
		if row.Term == "" {
			continue
		}
		rows = append(rows, row)
		if len(rows) > MaxImportRows {
			return nil, ErrTooManyRows
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return rows, nil
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}

func column(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
