package pipeline

import (
	"context"

	"github.com/dvloznov/ecommerce-pipeline/internal/domain"
	"github.com/dvloznov/ecommerce-pipeline/internal/logger"
	"github.com/dvloznov/ecommerce-pipeline/internal/notify"
)

type lineKey struct {
	transactionID string
	productID     string
}

// CheckQuality runs the data-quality stages in order: dedup on
// (transaction_id, product_id), quantity > 0, then thb_amount >= 0 with a
// non-null date. Each stage counts against the rows the previous one kept.
// Alerts go to n; the returned table holds only surviving rows.
func CheckQuality(ctx context.Context, t domain.OutputTable, n notify.Notifier) (domain.OutputTable, domain.DQReport) {
	log := logger.FromContext(ctx)
	report := domain.DQReport{InitialRowCount: len(t.Rows)}

	rows, dupes := dropDuplicates(t.Rows)
	report.DuplicateCount = dupes
	if dupes > 0 {
		log.Warn().Int("duplicates", dupes).Msg("Duplicate rows found, keeping first occurrence")
		n.Notify(ctx, notify.DuplicateAlert(dupes))
	}

	before := len(rows)
	rows = filterRows(rows, func(r domain.OutputRecord) bool { return r.Quantity > 0 })
	report.RowsRemovedByQuantity = before - len(rows)

	before = len(rows)
	rows = filterRows(rows, func(r domain.OutputRecord) bool { return r.THBAmount >= 0 && r.Date != nil })
	report.RowsRemovedByAmountOrDate = before - len(rows)

	report.FinalRowCount = len(rows)
	stageLog := logger.WithFields(log, map[string]interface{}{
		"duplicates":             report.DuplicateCount,
		"removed_quantity":       report.RowsRemovedByQuantity,
		"removed_amount_or_date": report.RowsRemovedByAmountOrDate,
	})
	if removed := report.RemovedRows(); removed > 0 {
		stageLog.Warn().Int("removed", removed).Msg("Removed invalid rows")
		n.Notify(ctx, notify.RemovedRowsAlert(report))
	}
	stageLog.Info().Int("rows", report.FinalRowCount).Msg("Data quality checks completed")

	return domain.OutputTable{Columns: t.Columns, Rows: rows}, report
}

func dropDuplicates(rows []domain.OutputRecord) ([]domain.OutputRecord, int) {
	seen := make(map[lineKey]struct{}, len(rows))
	kept := make([]domain.OutputRecord, 0, len(rows))
	for _, r := range rows {
		k := lineKey{r.TransactionID, r.ProductID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, r)
	}
	return kept, len(rows) - len(kept)
}

func filterRows(rows []domain.OutputRecord, keep func(domain.OutputRecord) bool) []domain.OutputRecord {
	kept := rows[:0:0]
	for _, r := range rows {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	return kept
}
