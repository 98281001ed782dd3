// Package report holds the derived read models computed from the domain
// collections. Everything here is a pure function over snapshots of the
// data; nothing mutates.
package report

import (
	"slices"
	"strings"
	"time"

	"stocksight/backend/internal/domain"
)

// Stock status buckets.
const (
	StockStatusIn  = "in-stock"
	StockStatusLow = "low-stock"
	StockStatusOut = "out-of-stock"
)

// Sales windows accepted by FilterSales.
const (
	WindowToday = "today"
	WindowWeek  = "week"
	WindowMonth = "month"
	WindowAll   = "all"
)

// Reconciliation is balanced when the counted cash is within one whole
// naira of the expected cash total.
const reconciliationToleranceKobo = 100

// StockStatusOf buckets a product. Zero quantity wins over the low-stock
// threshold.
func StockStatusOf(p domain.Product) string {
	switch {
	case p.Quantity == 0:
		return StockStatusOut
	case p.Quantity <= p.LowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

// LowStock returns every product at or below its threshold, including
// out-of-stock ones.
func LowStock(products []domain.Product) []domain.Product {
	result := make([]domain.Product, 0)
	for _, p := range products {
		if p.Quantity <= p.LowStockThreshold {
			result = append(result, p)
		}
	}
	return result
}

func OutOfStock(products []domain.Product) []domain.Product {
	result := make([]domain.Product, 0)
	for _, p := range products {
		if p.Quantity == 0 {
			result = append(result, p)
		}
	}
	return result
}

// ProductFilter narrows and orders the inventory view. Zero values mean
// "no constraint"; SortBy defaults to name.
type ProductFilter struct {
	Query      string
	Category   string
	Status     string
	SortBy     string
	Descending bool
}

func FilterProducts(products []domain.Product, filter ProductFilter) []domain.Product {
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	result := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Status != "" && StockStatusOf(p) != filter.Status {
			continue
		}
		result = append(result, p)
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "name"
	}
	slices.SortFunc(result, func(a, b domain.Product) int {
		c := compareProducts(a, b, sortBy)
		if filter.Descending {
			c = -c
		}
		if c == 0 {
			// Ties always break ascending by id so ordering is stable
			// regardless of direction.
			return cmpString(a.ID, b.ID)
		}
		return c
	})
	return result
}

func compareProducts(a domain.Product, b domain.Product, sortBy string) int {
	switch sortBy {
	case "quantity":
		return a.Quantity - b.Quantity
	case "price":
		return cmpInt64(a.SellingPriceKobo, b.SellingPriceKobo)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return cmpString(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
}

// SaleFilter narrows the sales view by time window, status and a free-text
// query matched against the rep name and line product names.
type SaleFilter struct {
	Window string
	Status string
	Query  string
}

func FilterSales(sales []domain.Sale, filter SaleFilter, now time.Time) []domain.Sale {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	window := filter.Window
	if window == "" {
		window = WindowAll
	}

	result := make([]domain.Sale, 0, len(sales))
	for _, sale := range sales {
		if !inWindow(sale.CreatedAt, window, now) {
			continue
		}
		if filter.Status != "" && sale.Status != filter.Status {
			continue
		}
		if query != "" && !saleMatches(sale, query) {
			continue
		}
		result = append(result, sale)
	}
	return result
}

// inWindow treats "today" as the local calendar day and "week"/"month" as
// rolling 7 and 30 day spans ending now.
func inWindow(at time.Time, window string, now time.Time) bool {
	switch window {
	case WindowToday:
		return sameDay(at, now)
	case WindowWeek:
		return !at.Before(now.AddDate(0, 0, -7))
	case WindowMonth:
		return !at.Before(now.AddDate(0, 0, -30))
	default:
		return true
	}
}

func sameDay(a time.Time, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

func saleMatches(sale domain.Sale, query string) bool {
	if strings.Contains(strings.ToLower(sale.SalesRepName), query) {
		return true
	}
	for _, item := range sale.Items {
		if strings.Contains(strings.ToLower(item.ProductName), query) {
			return true
		}
	}
	return false
}

// DailySeries computes the trailing seven day revenue and profit series,
// oldest day first, today last. Disputed sales are excluded. Profit uses
// the product's current cost price; lines whose product no longer exists
// contribute zero profit, and each day's profit is clamped at zero.
func DailySeries(sales []domain.Sale, products []domain.Product, now time.Time) domain.DailySeriesReport {
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	points := make([]domain.DailySalesPoint, 7)
	for i := range points {
		day := now.AddDate(0, 0, i-6)
		points[i].Date = day.Local().Format("2006-01-02")
	}

	for _, sale := range sales {
		if sale.Status == domain.SaleStatusDisputed {
			continue
		}
		date := sale.CreatedAt.Local().Format("2006-01-02")
		for i := range points {
			if points[i].Date != date {
				continue
			}
			points[i].SalesKobo += sale.TotalAmountKobo
			for _, item := range sale.Items {
				product, exists := byID[item.ProductID]
				if !exists {
					continue
				}
				points[i].ProfitKobo += (item.UnitPriceKobo - product.CostPriceKobo) * int64(item.Quantity)
			}
			break
		}
	}

	for i := range points {
		if points[i].ProfitKobo < 0 {
			points[i].ProfitKobo = 0
		}
	}

	return domain.DailySeriesReport{
		GeneratedAt: now.UTC(),
		Points:      points,
	}
}

// CategoryValuation sums quantity times selling price per category over
// the current inventory, sorted by descending value then category name.
func CategoryValuation(products []domain.Product) []domain.CategoryValuation {
	totals := make(map[string]int64)
	for _, p := range products {
		totals[p.Category] += int64(p.Quantity) * p.SellingPriceKobo
	}

	result := make([]domain.CategoryValuation, 0, len(totals))
	for category, value := range totals {
		result = append(result, domain.CategoryValuation{Category: category, ValueKobo: value})
	}
	slices.SortFunc(result, func(a, b domain.CategoryValuation) int {
		if a.ValueKobo != b.ValueKobo {
			return cmpInt64(b.ValueKobo, a.ValueKobo)
		}
		return cmpString(a.Category, b.Category)
	})
	return result
}

// WeekOverWeek compares the trailing seven days of non-disputed revenue
// against the seven days before that. A zero baseline reports zero change
// rather than a division blowup.
func WeekOverWeek(sales []domain.Sale, now time.Time) domain.WeekOverWeekReport {
	weekStart := now.AddDate(0, 0, -7)
	lastWeekStart := now.AddDate(0, 0, -14)

	var thisWeek, lastWeek int64
	for _, sale := range sales {
		if sale.Status == domain.SaleStatusDisputed {
			continue
		}
		switch {
		case !sale.CreatedAt.Before(weekStart):
			thisWeek += sale.TotalAmountKobo
		case !sale.CreatedAt.Before(lastWeekStart):
			lastWeek += sale.TotalAmountKobo
		}
	}

	report := domain.WeekOverWeekReport{
		ThisWeekKobo: thisWeek,
		LastWeekKobo: lastWeek,
	}
	if lastWeek > 0 {
		report.ChangePercent = float64(thisWeek-lastWeek) / float64(lastWeek) * 100
	}
	return report
}

// Reconcile compares the cash actually counted against today's approved
// sales grouped by payment method. Only cash is reconciled against the
// drawer; transfer and POS totals are reported for reference.
func Reconcile(sales []domain.Sale, cashReceivedKobo int64, now time.Time) domain.ReconciliationReport {
	var cash, transfer, pos int64
	for _, sale := range sales {
		if sale.Status != domain.SaleStatusApproved || !sameDay(sale.CreatedAt, now) {
			continue
		}
		switch sale.PaymentMethod {
		case domain.PaymentMethodCash:
			cash += sale.TotalAmountKobo
		case domain.PaymentMethodTransfer:
			transfer += sale.TotalAmountKobo
		case domain.PaymentMethodPOS:
			pos += sale.TotalAmountKobo
		}
	}

	difference := cashReceivedKobo - cash
	report := domain.ReconciliationReport{
		Date:             now.Local().Format("2006-01-02"),
		CashKobo:         cash,
		TransferKobo:     transfer,
		POSKobo:          pos,
		CashReceivedKobo: cashReceivedKobo,
		DifferenceKobo:   difference,
	}
	report.IsBalanced = absInt64(difference) < reconciliationToleranceKobo
	switch {
	case report.IsBalanced:
		report.Verdict = "balanced"
	case difference > 0:
		report.Verdict = "over"
	default:
		report.Verdict = "short"
	}
	return report
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cmpInt64(a int64, b int64) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
