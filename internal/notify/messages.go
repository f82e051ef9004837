package notify

import (
	"fmt"
	"strings"

	"github.com/dvloznov/ecommerce-pipeline/internal/domain"
)

// DuplicateAlert is sent when the dedup stage drops rows.
func DuplicateAlert(count int) string {
	return fmt.Sprintf("⚠️ **DQ Warning**: found %d duplicate rows on (transaction_id, product_id); kept first occurrence.", count)
}

// RemovedRowsAlert is sent when the validity stages drop rows.
func RemovedRowsAlert(r domain.DQReport) string {
	return fmt.Sprintf("🗑️ **DQ Warning**: removed %d bad rows (quantity <= 0: %d, negative thb_amount or missing date: %d).",
		r.RemovedRows(), r.RowsRemovedByQuantity, r.RowsRemovedByAmountOrDate)
}

// SummaryMessage renders the per-run DQ counts.
func SummaryMessage(r domain.DQReport) string {
	var b strings.Builder
	b.WriteString("📊 **DQ Process Summary**\n")
	b.WriteString("------------------------\n")
	fmt.Fprintf(&b, "📥 **Initial Input:** %d\n", r.InitialRowCount)
	fmt.Fprintf(&b, "⚠️ Duplicates Dropped: %d\n", r.DuplicateCount)
	fmt.Fprintf(&b, "🗑️ Bad Rows Removed: %d\n", r.RemovedRows())
	fmt.Fprintf(&b, "✅ **Final Rows:** %d", r.FinalRowCount)
	return b.String()
}

// SuccessMessage is sent once a run has published its table.
func SuccessMessage(destination string, r *domain.DQReport) string {
	msg := fmt.Sprintf("🟢 **SUCCESS!** Pipeline completed.\nData cleaned & loaded to `%s`.", destination)
	if r != nil {
		msg += "\n" + SummaryMessage(*r)
	}
	return msg
}

// FailureMessage is sent when a run aborts.
func FailureMessage(runID, task string, err error) string {
	return fmt.Sprintf("🔴 **FAILED!**\nTask: `%s`\nRun: `%s`\nError: %v", task, runID, err)
}
