package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	// Registers the "mysql" driver for Open.
	_ "github.com/go-sql-driver/mysql"

	"github.com/dvloznov/ecommerce-pipeline/internal/domain"
	"github.com/dvloznov/ecommerce-pipeline/internal/logger"
)

// TransactionSource extracts transaction line items joined with their
// product and customer details.
type TransactionSource struct {
	db     *sql.DB
	schema string
}

// NewTransactionSource wraps an open database. schema is the database that
// holds the transaction, product and customer tables.
func NewTransactionSource(db *sql.DB, schema string) *TransactionSource {
	return &TransactionSource{db: db, schema: schema}
}

// Open connects to MySQL with dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("mysql.Open: dsn is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql.Open: %w", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(2)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql.Open: ping: %w", err)
	}
	return db, nil
}

func (s *TransactionSource) query() string {
	return fmt.Sprintf(`
		SELECT
			t.TransactionNo AS transaction_id,
			t.Date AS date,
			t.ProductNo AS product_id,
			t.Price AS price,
			t.Quantity AS quantity,
			t.CustomerNo AS customer_id,
			p.ProductName AS product_name,
			c.Country AS customer_country,
			c.Name AS customer_name,
			(t.Price * t.Quantity) AS total_amount
		FROM `+"`%[1]s`.`transaction`"+` t
		LEFT JOIN `+"`%[1]s`.`product`"+` p ON t.ProductNo = p.ProductNo
		LEFT JOIN `+"`%[1]s`.`customer`"+` c ON t.CustomerNo = c.CustomerNo
	`, s.schema)
}

// ExtractTransactions reads every transaction line. join_date is derived from
// date here so the rate join can match on a plain string. An empty result
// yields a table with only the date, price and quantity columns.
func (s *TransactionSource) ExtractTransactions(ctx context.Context) (domain.TransactionTable, error) {
	log := logger.FromContext(ctx)
	log.Info().Str("schema", s.schema).Msg("Extracting all transactions")

	rows, err := s.db.QueryContext(ctx, s.query())
	if err != nil {
		return domain.TransactionTable{}, fmt.Errorf("ExtractTransactions: query: %w", err)
	}
	defer rows.Close()

	var records []domain.TransactionRecord
	for rows.Next() {
		var (
			rec         domain.TransactionRecord
			rawDate     any
			price       sql.NullFloat64
			quantity    sql.NullInt64
			total       sql.NullFloat64
			customerID  sql.NullString
			productName sql.NullString
			country     sql.NullString
			name        sql.NullString
		)
		if err := rows.Scan(
			&rec.TransactionID,
			&rawDate,
			&rec.ProductID,
			&price,
			&quantity,
			&customerID,
			&productName,
			&country,
			&name,
			&total,
		); err != nil {
			return domain.TransactionTable{}, fmt.Errorf("ExtractTransactions: scan: %w", err)
		}

		rec.Price = price.Float64
		rec.Quantity = quantity.Int64
		rec.TotalAmount = total.Float64
		rec.CustomerID = nullString(customerID)
		rec.ProductName = nullString(productName)
		rec.CustomerCountry = nullString(country)
		rec.CustomerName = nullString(name)

		rec.Date, err = dateString(rawDate)
		if err != nil {
			return domain.TransactionTable{}, fmt.Errorf("ExtractTransactions: transaction %s: %w", rec.TransactionID, err)
		}
		if rec.Date != nil {
			rec.JoinDate, err = domain.NormalizeDate(*rec.Date)
			if err != nil {
				return domain.TransactionTable{}, fmt.Errorf("ExtractTransactions: transaction %s: %w", rec.TransactionID, err)
			}
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return domain.TransactionTable{}, fmt.Errorf("ExtractTransactions: rows: %w", err)
	}

	if len(records) == 0 {
		log.Warn().Msg("No transactions found in source database")
		return domain.TransactionTable{Columns: domain.EmptyTransactionColumns}, nil
	}

	log.Info().Int("rows", len(records)).Msg("Extracted transactions")
	return domain.TransactionTable{Columns: domain.TransactionColumns, Rows: records}, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// dateString renders a scanned date column. Typed DATE and DATETIME values
// arrive as time.Time and are formatted as their calendar date; text columns
// are kept as stored.
func dateString(v any) (*string, error) {
	var s string
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		s = civil.DateOf(val).String()
	case []byte:
		s = string(val)
	case string:
		s = val
	default:
		return nil, fmt.Errorf("unsupported date type %T", v)
	}
	return &s, nil
}
