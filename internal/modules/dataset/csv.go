package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadCSV reads rows of the form f0,...,fN-1,label. A first row whose
// leading cell is not numeric is treated as a header and skipped.
func LoadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	ds := &Dataset{}
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: need at least one feature and a label", line)
		}
		if line == 1 {
			if _, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64); err != nil {
				continue
			}
		}

		row := make([]float64, len(record)-1)
		for i, cell := range record[:len(record)-1] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i, err)
			}
			row[i] = v
		}
		label, err := strconv.Atoi(strings.TrimSpace(record[len(record)-1]))
		if err != nil {
			return nil, fmt.Errorf("line %d label: %w", line, err)
		}
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, label)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// LoadCSVFile opens path and calls LoadCSV.
func LoadCSVFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// WriteCSV writes ds in the format LoadCSV reads, with a header row.
func WriteCSV(w io.Writer, ds *Dataset) error {
	writer := csv.NewWriter(w)
	header := make([]string, ds.NFeatures()+1)
	for i := 0; i < ds.NFeatures(); i++ {
		header[i] = fmt.Sprintf("f%d", i)
	}
	header[len(header)-1] = "label"
	if err := writer.Write(header); err != nil {
		return err
	}
	for i, row := range ds.X {
		record := make([]string, len(row)+1)
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		record[len(row)] = strconv.Itoa(ds.Y[i])
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
