package fidelity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/username/folioledger/backend/src/models"
)

// ErrFormat marks a structurally malformed export: header mismatch, field
// count mismatch or a non-numeric value where a number is required. Callers
// check it with errors.Is and reject the whole file.
var ErrFormat = errors.New("invalid fidelity csv format")

// expectedHeader is the fixed column schema of a Fidelity activity export.
// The match is order-sensitive and exact.
var expectedHeader = []string{
	"Run Date",
	"Account",
	"Account Number",
	"Action",
	"Symbol",
	"Description",
	"Type",
	"Price ($)",
	"Quantity",
	"Commission ($)",
	"Fees ($)",
	"Accrued Interest ($)",
	"Amount ($)",
	"Settlement Date",
}

// Column indexes of the subset of the export the importer uses.
const (
	colRunDate = iota
	colAccount
	colAccountNumber
	colAction
	colSymbol
	colDescription
	colType
	colPrice
	colQuantity
	colCommission
	colFees
	colAccruedInterest
	colAmount
	colSettlementDate
)

// FidelityParser converts Fidelity activity exports into typed rows.
type FidelityParser struct{}

// NewParser creates a new instance of the FidelityParser.
func NewParser() *FidelityParser {
	return &FidelityParser{}
}

// Parse reads a Fidelity CSV export and returns its typed data rows.
// Empty and header-only input both yield zero rows without an error.
func (p *FidelityParser) Parse(file io.Reader) ([]models.FidelityRow, error) {
	reader := csv.NewReader(file)
	// Field counts are validated per row below so that errors can name the
	// offending 1-based data row.
	reader.FieldsPerRecord = -1

	header, err := readNonBlank(reader)
	if err == io.EOF {
		return []models.FidelityRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrFormat, err)
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	rows := []models.FidelityRow{}
	rowNum := 0
	for {
		record, err := readNonBlank(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading row %d: %v", ErrFormat, rowNum+1, err)
		}
		rowNum++

		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%w: row %d has %d fields, expected %d",
				ErrFormat, rowNum, len(record), len(expectedHeader))
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}

		price, err := parseNumericField("Price ($)", record[colPrice], rowNum)
		if err != nil {
			return nil, err
		}
		quantity, err := parseNumericField("Quantity", record[colQuantity], rowNum)
		if err != nil {
			return nil, err
		}
		amount, err := parseNumericField("Amount ($)", record[colAmount], rowNum)
		if err != nil {
			return nil, err
		}

		rows = append(rows, models.FidelityRow{
			Date:        record[colRunDate],
			Account:     record[colAccount],
			Action:      record[colAction],
			Symbol:      record[colSymbol],
			Description: record[colDescription],
			Quantity:    quantity,
			Price:       price,
			Amount:      amount,
		})
	}

	return rows, nil
}

// Serialize renders rows back into the export format. Columns the importer
// does not consume are left empty.
func Serialize(rows []models.FidelityRow) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Write(expectedHeader)
	for _, row := range rows {
		record := make([]string, len(expectedHeader))
		record[colRunDate] = row.Date
		record[colAccount] = row.Account
		record[colAction] = row.Action
		record[colSymbol] = row.Symbol
		record[colDescription] = row.Description
		record[colPrice] = formatNumeric(row.Price)
		record[colQuantity] = formatNumeric(row.Quantity)
		record[colAmount] = formatNumeric(row.Amount)
		w.Write(record)
	}
	w.Flush()
	return sb.String()
}

// readNonBlank returns the next record that has at least one non-empty field.
// Fidelity exports pad the file with blank lines around the data block.
func readNonBlank(reader *csv.Reader) ([]string, error) {
	for {
		record, err := reader.Read()
		if err != nil {
			return nil, err
		}
		for _, field := range record {
			if strings.TrimSpace(field) != "" {
				return record, nil
			}
		}
	}
}

func validateHeader(header []string) error {
	if len(header) != len(expectedHeader) {
		return fmt.Errorf("%w: header has %d columns, expected %d",
			ErrFormat, len(header), len(expectedHeader))
	}
	for i, name := range header {
		if strings.TrimSpace(name) != expectedHeader[i] {
			return fmt.Errorf("%w: header column %d is %q, expected %q",
				ErrFormat, i+1, strings.TrimSpace(name), expectedHeader[i])
		}
	}
	return nil
}

// parseNumericField cleans currency formatting from a numeric column and
// parses it. Non-trade rows leave numeric columns blank, which parses as 0.
func parseNumericField(column, raw string, rowNum int) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid numeric value %q in column %q on row %d",
			ErrFormat, raw, column, rowNum)
	}
	return value, nil
}

func formatNumeric(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
