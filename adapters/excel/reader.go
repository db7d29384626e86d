package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"catdist/domain/chart"
	"catdist/domain/core"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files into chart rows
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	columns  Columns

	mu      sync.Mutex
	modTime time.Time
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, columns Columns) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, sheet: "Sheet1", columns: columns}
}

// WithSheet selects the worksheet read from xlsx files.
func (r *DataReader) WithSheet(sheet string) *DataReader {
	r.sheet = sheet
	return r
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	info, err := os.Stat(r.filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", r.filePath, err)
	}
	r.mu.Lock()
	r.modTime = info.ModTime()
	r.mu.Unlock()

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads the configured sheet into structured format
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	log.Printf("[DataReader] Excel file opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	readStart := time.Now()
	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.sheet, err)
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)", r.sheet, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 1 {
		return nil, fmt.Errorf("Excel file must have a header row")
	}

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 1 {
		return nil, fmt.Errorf("CSV file must have a header row")
	}

	return r.processRows(rows)
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		rowData := make(RawRowData)
		for j, cell := range rows[i] {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

// LoadRows implements ports.RowSource.
func (r *DataReader) LoadRows(ctx context.Context) ([]chart.Row, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.ToRows(data)
}

// ToRows maps raw rows onto chart rows. Unparseable or blank values become
// NaN so they are counted as missing data rather than rejected.
func (r *DataReader) ToRows(data *ExcelData) ([]chart.Row, error) {
	cols := r.columns
	if cols.Value == "" {
		col, err := r.DetectValueColumn(data)
		if err != nil {
			return nil, err
		}
		cols.Value = col
	}
	if !hasHeader(data, cols.Value) {
		return nil, fmt.Errorf("value column %q not found", cols.Value)
	}
	if cols.Category != "" && !hasHeader(data, cols.Category) {
		return nil, fmt.Errorf("category column %q not found", cols.Category)
	}

	out := make([]chart.Row, 0, len(data.Rows))
	for i, raw := range data.Rows {
		row := chart.Row{
			ID:     core.StableRowID(r.filePath, i),
			Y:      parseValue(raw[cols.Value]),
			Source: raw,
		}
		if cols.Category != "" {
			row.Category = raw[cols.Category]
		}
		if cols.Trellis != "" {
			row.Trellis = raw[cols.Trellis]
		}
		if cols.Marked != "" {
			row.Marked = parseMarked(raw[cols.Marked])
		}
		if cols.Color != "" {
			row.Color = raw[cols.Color]
		}
		out = append(out, row)
	}
	return out, nil
}

// Invalidated implements ports.Liveness: the source is stale once the file
// has been modified or removed since the last read.
func (r *DataReader) Invalidated() bool {
	r.mu.Lock()
	seen := r.modTime
	r.mu.Unlock()
	if seen.IsZero() {
		return false
	}
	info, err := os.Stat(r.filePath)
	if err != nil {
		return true
	}
	return !info.ModTime().Equal(seen)
}

// DetectValueColumn picks the numeric column to plot
func (r *DataReader) DetectValueColumn(data *ExcelData) (string, error) {
	if len(data.Headers) == 0 {
		return "", fmt.Errorf("no columns found")
	}

	commonValueColumns := []string{"y", "value", "measure", "amount", "score"}
	for _, colName := range commonValueColumns {
		for _, header := range data.Headers {
			if strings.ToLower(header) == colName && r.isNumericColumn(data, header) {
				return header, nil
			}
		}
	}

	for _, header := range data.Headers {
		if header == r.columns.Category {
			continue
		}
		if r.isNumericColumn(data, header) {
			return header, nil
		}
	}

	return "", fmt.Errorf("could not detect a numeric value column")
}

// isNumericColumn checks that most non-empty cells parse as numbers
func (r *DataReader) isNumericColumn(data *ExcelData, columnName string) bool {
	numeric, nonEmpty := 0, 0
	for _, row := range data.Rows {
		value := row[columnName]
		if value == "" {
			continue
		}
		nonEmpty++
		if _, err := strconv.ParseFloat(value, 64); err == nil {
			numeric++
		}
	}
	return nonEmpty > 0 && float64(numeric)/float64(nonEmpty) > 0.9
}

func hasHeader(data *ExcelData, name string) bool {
	for _, h := range data.Headers {
		if h == name {
			return true
		}
	}
	return false
}

func parseValue(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseMarked(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "x":
		return true
	}
	return false
}
