package parquetio

import (
	"fmt"

	"github.com/dvloznov/ecommerce-pipeline/internal/domain"
)

// WriteTransactions persists a raw transaction extract.
func WriteTransactions(path string, t domain.TransactionTable) error {
	return writeTable(path, t.Columns, t.Rows)
}

// ReadTransactions loads a raw transaction extract.
func ReadTransactions(path string) (domain.TransactionTable, error) {
	columns, rows, err := readTable[domain.TransactionRecord](path)
	if err != nil {
		return domain.TransactionTable{}, err
	}
	return domain.TransactionTable{Columns: columns, Rows: rows}, nil
}

// WriteRates persists a rate table.
func WriteRates(path string, t domain.RateTable) error {
	return writeTable(path, domain.RateColumns, t.Rows)
}

// ReadRates loads a rate table. Both rate columns must be present.
func ReadRates(path string) (domain.RateTable, error) {
	columns, rows, err := readTable[domain.RateRecord](path)
	if err != nil {
		return domain.RateTable{}, err
	}
	for _, col := range domain.RateColumns {
		if !domain.HasColumn(columns, col) {
			return domain.RateTable{}, fmt.Errorf("ReadRates %s: missing column %q", path, col)
		}
	}
	return domain.RateTable{Rows: rows}, nil
}

// WriteOutput persists the final validated table.
func WriteOutput(path string, t domain.OutputTable) error {
	return writeTable(path, t.Columns, t.Rows)
}

// ReadOutput loads a final table.
func ReadOutput(path string) (domain.OutputTable, error) {
	columns, rows, err := readTable[domain.OutputRecord](path)
	if err != nil {
		return domain.OutputTable{}, err
	}
	return domain.OutputTable{Columns: columns, Rows: rows}, nil
}
