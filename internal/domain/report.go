package domain

// DQReport accumulates the per-stage counts of one data-quality run.
// It is handed to the notifier and never persisted.
type DQReport struct {
	InitialRowCount           int
	DuplicateCount            int
	RowsRemovedByQuantity     int
	RowsRemovedByAmountOrDate int
	FinalRowCount             int
}

// RemovedRows is the number of rows the validity stages dropped after dedup.
func (r DQReport) RemovedRows() int {
	return r.RowsRemovedByQuantity + r.RowsRemovedByAmountOrDate
}
