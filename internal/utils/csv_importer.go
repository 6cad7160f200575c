package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PrizeRow is one parsed line of a prize catalog CSV.
type PrizeRow struct {
	Line        int
	Name        string
	Description string
	Category    string
	Weight      *int
	Quantity    *int
	Color       string
	Icon        string
	Emoji       string
	Position    *int
}

// RowError reports a line that could not be parsed.
type RowError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

// ReadPrizeRows parses a prize catalog. Only name and category are required;
// headers are matched case-insensitively against a few common spellings.
func ReadPrizeRows(r io.Reader) ([]PrizeRow, []RowError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	nameIdx := findColumnIndex(header, []string{"Name", "Prize", "Prize Name"})
	categoryIdx := findColumnIndex(header, []string{"Category", "Prize Category", "Type", "Prize Type"})
	if nameIdx == -1 || categoryIdx == -1 {
		return nil, nil, errors.New("required columns not found in CSV (name, category)")
	}
	descIdx := findColumnIndex(header, []string{"Description", "Details"})
	weightIdx := findColumnIndex(header, []string{"Weight", "Probability"})
	quantityIdx := findColumnIndex(header, []string{"Quantity", "Stock", "Count"})
	colorIdx := findColumnIndex(header, []string{"Color", "Colour"})
	iconIdx := findColumnIndex(header, []string{"Icon"})
	emojiIdx := findColumnIndex(header, []string{"Emoji"})
	positionIdx := findColumnIndex(header, []string{"Position", "Order", "Display Order"})

	var rows []PrizeRow
	var rowErrors []RowError
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Err: err.Error()})
			continue
		}

		row := PrizeRow{
			Line:        line,
			Name:        column(record, nameIdx),
			Category:    column(record, categoryIdx),
			Description: column(record, descIdx),
			Color:       column(record, colorIdx),
			Icon:        column(record, iconIdx),
			Emoji:       column(record, emojiIdx),
		}
		if row.Name == "" {
			rowErrors = append(rowErrors, RowError{Line: line, Err: "missing name"})
			continue
		}
		var convErr error
		if row.Weight, convErr = optionalInt(column(record, weightIdx)); convErr != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Err: "invalid weight: " + convErr.Error()})
			continue
		}
		if row.Quantity, convErr = optionalInt(column(record, quantityIdx)); convErr != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Err: "invalid quantity: " + convErr.Error()})
			continue
		}
		if row.Position, convErr = optionalInt(column(record, positionIdx)); convErr != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Err: "invalid position: " + convErr.Error()})
			continue
		}
		rows = append(rows, row)
	}
	return rows, rowErrors, nil
}

// findColumnIndex finds the index of a column by possible names
func findColumnIndex(header []string, possibleNames []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, name := range possibleNames {
			if strings.ToLower(name) == h {
				return i
			}
		}
	}
	return -1
}

func column(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
