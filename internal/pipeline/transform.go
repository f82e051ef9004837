package pipeline

import (
	"context"

	"github.com/dvloznov/ecommerce-pipeline/internal/domain"
	"github.com/dvloznov/ecommerce-pipeline/internal/logger"
)

// Join left-joins transactions onto rates by join_date. Every transaction is
// kept; rows without a matching rate carry a nil GBPTHB.
func Join(tx domain.TransactionTable, rates domain.RateTable) domain.JoinedTable {
	columns := append(append([]string(nil), tx.Columns...), domain.ColGBPTHB)
	if len(tx.Rows) == 0 {
		return domain.JoinedTable{Columns: columns}
	}

	byDate := make(map[string]float64, len(rates.Rows))
	for _, r := range rates.Rows {
		if _, seen := byDate[r.Date]; !seen {
			byDate[r.Date] = r.GBPTHB
		}
	}

	rows := make([]domain.JoinedRecord, len(tx.Rows))
	for i, t := range tx.Rows {
		rows[i].TransactionRecord = t
		if rate, ok := byDate[t.JoinDate]; ok && t.JoinDate != "" {
			rows[i].GBPTHB = &rate
		}
	}
	return domain.JoinedTable{Columns: columns, Rows: rows}
}

// Convert fills missing rates with fallback and computes thb_amount as
// total_amount * gbp_thb.
func Convert(t domain.JoinedTable, fallback float64) domain.JoinedTable {
	out := domain.JoinedTable{
		Columns: append(append([]string(nil), t.Columns...), domain.ColTHBAmount),
		Rows:    make([]domain.JoinedRecord, len(t.Rows)),
	}
	for i, r := range t.Rows {
		rate := fallback
		if r.GBPTHB != nil {
			rate = *r.GBPTHB
		}
		r.GBPTHB = &rate
		r.THBAmount = r.TotalAmount * rate
		out.Rows[i] = r
	}
	return out
}

// Project selects the output columns that are present in t, in output order.
// Values are carried as extracted.
func Project(ctx context.Context, t domain.JoinedTable) domain.OutputTable {
	log := logger.FromContext(ctx)

	var columns, missing []string
	for _, col := range domain.OutputColumns {
		if domain.HasColumn(t.Columns, col) {
			columns = append(columns, col)
		} else {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		log.Warn().Strs("missing_columns", missing).Msg("Output columns absent from source, projecting present columns only")
	}

	rows := make([]domain.OutputRecord, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = domain.OutputRecord{
			TransactionID:   r.TransactionID,
			Date:            r.Date,
			ProductID:       r.ProductID,
			Price:           r.Price,
			Quantity:        r.Quantity,
			CustomerID:      r.CustomerID,
			ProductName:     r.ProductName,
			CustomerCountry: r.CustomerCountry,
			CustomerName:    r.CustomerName,
			TotalAmount:     r.TotalAmount,
			THBAmount:       r.THBAmount,
		}
	}
	return domain.OutputTable{Columns: columns, Rows: rows}
}
