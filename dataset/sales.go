// Package dataset loads and prepares the Rossmann store sales history for
// forecasting. It covers downloading the competition archive, parsing the
// train.csv schema, and reshaping one store's rows into a time series.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrNoHeader       = errors.New("sales file has no header row")
	ErrMissingColumn  = errors.New("sales file is missing a required column")
	ErrMalformedValue = errors.New("malformed value in sales file")
)

// Record is one row of the daily sales history. StateHoliday is kept as the
// raw flag since the source mixes "0" with letter codes for the holiday kind.
type Record struct {
	Store         int
	DayOfWeek     int
	Date          time.Time
	Sales         float64
	Customers     int
	Open          int
	Promo         int
	StateHoliday  string
	SchoolHoliday int
}

// column names in canonical lowercase form
const (
	colStore         = "store"
	colDayOfWeek     = "dayofweek"
	colDate          = "date"
	colSales         = "sales"
	colCustomers     = "customers"
	colOpen          = "open"
	colPromo         = "promo"
	colStateHoliday  = "stateholiday"
	colSchoolHoliday = "schoolholiday"
)

var requiredColumns = []string{colStore, colDate, colSales, colOpen}

// ReadCSV parses the sales history from r. Header names are matched case
// insensitively so files exported with different casing still load. Optional
// columns missing from the file are left at their zero value.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read sales header, %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, exists := colIdx[name]; !exists {
			return nil, fmt.Errorf("%q, %w", name, ErrMissingColumn)
		}
	}

	var records []Record
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read sales row %d, %w", line, err)
		}
		line++

		rec, err := parseRecord(row, colIdx)
		if err != nil {
			return nil, fmt.Errorf("row %d, %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadCSVFile opens and parses the sales history at path.
func ReadCSVFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sales file, %w", err)
	}
	defer file.Close()
	return ReadCSV(file)
}

func parseRecord(row []string, colIdx map[string]int) (Record, error) {
	var rec Record
	var err error

	if rec.Store, err = intField(row, colIdx, colStore); err != nil {
		return Record{}, err
	}
	if rec.DayOfWeek, err = intField(row, colIdx, colDayOfWeek); err != nil {
		return Record{}, err
	}
	if rec.Customers, err = intField(row, colIdx, colCustomers); err != nil {
		return Record{}, err
	}
	if rec.Open, err = intField(row, colIdx, colOpen); err != nil {
		return Record{}, err
	}
	if rec.Promo, err = intField(row, colIdx, colPromo); err != nil {
		return Record{}, err
	}
	if rec.SchoolHoliday, err = intField(row, colIdx, colSchoolHoliday); err != nil {
		return Record{}, err
	}

	if idx, exists := colIdx[colStateHoliday]; exists && idx < len(row) {
		rec.StateHoliday = strings.TrimSpace(row[idx])
	}

	dateIdx := colIdx[colDate]
	if dateIdx >= len(row) {
		return Record{}, fmt.Errorf("%q, %w", colDate, ErrMalformedValue)
	}
	rec.Date, err = time.Parse(DateLayout, strings.TrimSpace(row[dateIdx]))
	if err != nil {
		return Record{}, fmt.Errorf("%q: %v, %w", colDate, err, ErrMalformedValue)
	}

	salesIdx := colIdx[colSales]
	if salesIdx >= len(row) {
		return Record{}, fmt.Errorf("%q, %w", colSales, ErrMalformedValue)
	}
	rec.Sales, err = strconv.ParseFloat(strings.TrimSpace(row[salesIdx]), 64)
	if err != nil {
		return Record{}, fmt.Errorf("%q: %v, %w", colSales, err, ErrMalformedValue)
	}

	return rec, nil
}

func intField(row []string, colIdx map[string]int, name string) (int, error) {
	idx, exists := colIdx[name]
	if !exists {
		return 0, nil
	}
	if idx >= len(row) {
		return 0, fmt.Errorf("%q, %w", name, ErrMalformedValue)
	}
	val := strings.TrimSpace(row[idx])
	if val == "" {
		return 0, nil
	}
	res, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%q: %v, %w", name, err, ErrMalformedValue)
	}
	return res, nil
}
