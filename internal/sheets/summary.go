package sheets

import (
	"math"

	"tally/internal/model"
	"tally/internal/service"
)

// BuildSummary aggregates totals and per-category statistics for a
// report. Transfers move money between accounts rather than in or out,
// so they are excluded from the totals and the category breakdown.
func BuildSummary(transactions []model.Transaction, dateRange service.DateRange) *service.ReportSummary {
	summary := &service.ReportSummary{
		DateRange:  dateRange,
		ByCategory: make(map[string]service.CategorySummary),
	}

	for _, txn := range transactions {
		if txn.IsTransfer {
			continue
		}

		if txn.Amount > 0 {
			summary.TotalIncome += txn.Amount
		} else {
			summary.TotalExpenses += math.Abs(txn.Amount)
		}

		category := txn.Category
		if category == "" {
			category = model.FallbackCategory
		}
		catSummary := summary.ByCategory[category]
		catSummary.Count++
		catSummary.Amount += math.Abs(txn.Amount)
		summary.ByCategory[category] = catSummary
	}

	return summary
}
