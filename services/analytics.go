package services

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/restopilot/platform/models"
)

// Granularities for the analytics time series.
const (
	GranularityDay   = "day"
	GranularityMonth = "month"
	GranularityYear  = "year"
)

// deletedItemName labels ranking buckets whose menu item no longer exists.
// One bucket is kept per missing id; they are not merged.
const deletedItemName = "Deleted Item"

type AnalyticsParams struct {
	TenantID    uint
	StartDate   string // YYYY-MM-DD, optional
	EndDate     string // YYYY-MM-DD, optional
	Year        int    // optional, defaults to current year
	Month       int    // optional, defaults to current month
	Granularity string // day | month | year, defaults to day
	Status      string // optional extra status filter
}

type BucketStat struct {
	Count   int64 `json:"count"`
	Revenue int64 `json:"revenue"`
}

type RankedEntry struct {
	Name    string `json:"name"`
	Count   int64  `json:"count"`
	Revenue int64  `json:"revenue"`
}

type AnalyticsStats struct {
	TotalOrders      int64 `json:"total_orders"`
	TotalRevenue     int64 `json:"total_revenue"`
	CancelledOrders  int64 `json:"cancelled_orders"`
	CancelledRevenue int64 `json:"cancelled_revenue"`
	TotalCategories  int64 `json:"total_categories"`
	TotalMenuItems   int64 `json:"total_menu_items"`
}

type AnalyticsResult struct {
	Stats             AnalyticsStats        `json:"stats"`
	ChartData         map[string]BucketStat `json:"chart_data"`
	TopMenuItems      []RankedEntry         `json:"top_menu_items"`
	TopPaymentMethods []RankedEntry         `json:"top_payment_methods"`
}

// AnalyticsAggregator turns a tenant's order history into dashboard
// statistics. Reads only; clients poll it on an interval.
type AnalyticsAggregator struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAnalyticsAggregator(db *gorm.DB) *AnalyticsAggregator {
	return &AnalyticsAggregator{db: db, now: time.Now}
}

const dateLayout = "2006-01-02"

// resolveRange picks the reporting window. Explicit start/end dates win, with
// the end normalized to end-of-day. Otherwise the window derives from
// year/month and the granularity: the given month for days, the given year
// for months, a trailing five-year window for years.
func (a *AnalyticsAggregator) resolveRange(p AnalyticsParams) (time.Time, time.Time, error) {
	if p.StartDate != "" && p.EndDate != "" {
		start, errStart := time.ParseInLocation(dateLayout, p.StartDate, time.Local)
		end, errEnd := time.ParseInLocation(dateLayout, p.EndDate, time.Local)
		if errStart == nil && errEnd == nil {
			end = endOfDay(end)
			if end.Before(start) {
				return time.Time{}, time.Time{}, &ValidationError{Field: "end_date", Reason: "before start_date"}
			}
			return start, end, nil
		}
	}

	now := a.now()
	year := p.Year
	if year == 0 {
		year = now.Year()
	}
	month := p.Month
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, &ValidationError{Field: "month", Reason: "must be 1-12"}
	}

	switch p.Granularity {
	case GranularityMonth:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
		end := endOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, time.Local))
		return start, end, nil
	case GranularityYear:
		start := time.Date(year-4, time.January, 1, 0, 0, 0, 0, time.Local)
		end := endOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, time.Local))
		return start, end, nil
	default: // day
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
		end := endOfDay(start.AddDate(0, 1, -1))
		return start, end, nil
	}
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, t.Location())
}

func bucketKey(t time.Time, granularity string) string {
	switch granularity {
	case GranularityMonth:
		return t.Format("2006-01")
	case GranularityYear:
		return t.Format("2006")
	default:
		return t.Format(dateLayout)
	}
}

// initBuckets pre-fills one zeroed bucket per step in [start, end] so the
// series has no gaps even for periods without orders.
func initBuckets(start, end time.Time, granularity string) map[string]BucketStat {
	buckets := make(map[string]BucketStat)
	var cursor time.Time
	switch granularity {
	case GranularityMonth:
		cursor = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	case GranularityYear:
		cursor = time.Date(start.Year(), time.January, 1, 0, 0, 0, 0, start.Location())
	default:
		cursor = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	}
	for !cursor.After(end) {
		buckets[bucketKey(cursor, granularity)] = BucketStat{}
		switch granularity {
		case GranularityMonth:
			cursor = cursor.AddDate(0, 1, 0)
		case GranularityYear:
			cursor = cursor.AddDate(1, 0, 0)
		default:
			cursor = cursor.AddDate(0, 0, 1)
		}
	}
	return buckets
}

func (a *AnalyticsAggregator) Aggregate(p AnalyticsParams) (*AnalyticsResult, error) {
	if p.TenantID == 0 {
		return nil, &ValidationError{Field: "tenant_id", Reason: "required"}
	}
	switch p.Granularity {
	case "":
		p.Granularity = GranularityDay
	case GranularityDay, GranularityMonth, GranularityYear:
	default:
		return nil, &ValidationError{Field: "granularity", Reason: fmt.Sprintf("unknown granularity %q", p.Granularity)}
	}
	if p.Status != "" && !IsValidOrderStatus(p.Status) {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", p.Status)}
	}

	start, end, err := a.resolveRange(p)
	if err != nil {
		return nil, err
	}

	query := a.db.Preload("Items").
		Where("tenant_id = ? AND created_at BETWEEN ? AND ?", p.TenantID, start, end).
		Order("created_at asc")
	if p.Status != "" {
		query = query.Where("status = ?", p.Status)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	var valid, cancelled []models.Order
	for _, o := range orders {
		switch {
		case IsRevenueStatus(o.Status):
			valid = append(valid, o)
		case o.Status == models.OrderStatusCancelled:
			cancelled = append(cancelled, o)
		}
		// PENDING orders count toward neither partition.
	}

	result := &AnalyticsResult{
		ChartData:         initBuckets(start, end, p.Granularity),
		TopMenuItems:      []RankedEntry{},
		TopPaymentMethods: []RankedEntry{},
	}

	result.Stats.TotalOrders = int64(len(valid))
	result.Stats.CancelledOrders = int64(len(cancelled))
	for _, o := range valid {
		result.Stats.TotalRevenue += o.TotalAmount
	}
	for _, o := range cancelled {
		result.Stats.CancelledRevenue += o.TotalAmount
	}

	// Tenant-wide live counts, independent of the date range.
	if err := a.db.Model(&models.MenuCategory{}).Where("tenant_id = ?", p.TenantID).
		Count(&result.Stats.TotalCategories).Error; err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	if err := a.db.Model(&models.MenuItem{}).Where("tenant_id = ?", p.TenantID).
		Count(&result.Stats.TotalMenuItems).Error; err != nil {
		return nil, fmt.Errorf("failed to count menu items: %w", err)
	}

	topItems, err := a.rankMenuItems(valid)
	if err != nil {
		return nil, err
	}
	result.TopMenuItems = topItems
	result.TopPaymentMethods = rankPaymentMethods(valid)

	for _, o := range valid {
		key := bucketKey(o.CreatedAt, p.Granularity)
		bucket := result.ChartData[key] // zero value when outside the pre-initialized range
		bucket.Count++
		bucket.Revenue += o.TotalAmount
		result.ChartData[key] = bucket
	}

	return result, nil
}

const topN = 5

// rankMenuItems accumulates quantity and revenue per menu item across the
// valid orders. Lines whose menu item has been deleted keep one bucket per
// missing id under the "Deleted Item" label.
func (a *AnalyticsAggregator) rankMenuItems(valid []models.Order) ([]RankedEntry, error) {
	ids := make(map[uint]bool)
	for _, o := range valid {
		for _, line := range o.Items {
			ids[line.MenuItemID] = true
		}
	}

	names := make(map[uint]string, len(ids))
	if len(ids) > 0 {
		idList := make([]uint, 0, len(ids))
		for id := range ids {
			idList = append(idList, id)
		}
		var items []models.MenuItem
		if err := a.db.Where("id IN ?", idList).Find(&items).Error; err != nil {
			return nil, fmt.Errorf("failed to load menu items: %w", err)
		}
		for _, item := range items {
			names[item.ID] = item.Name
		}
	}

	totals := make(map[uint]*RankedEntry)
	var order []uint // first-seen order for stable ties
	for _, o := range valid {
		for _, line := range o.Items {
			entry, ok := totals[line.MenuItemID]
			if !ok {
				name, found := names[line.MenuItemID]
				if !found {
					name = deletedItemName
				}
				entry = &RankedEntry{Name: name}
				totals[line.MenuItemID] = entry
				order = append(order, line.MenuItemID)
			}
			entry.Count += int64(line.Quantity)
			entry.Revenue += line.Price * int64(line.Quantity)
		}
	}

	ranked := make([]RankedEntry, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, *totals[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}

// rankPaymentMethods counts valid orders per payment method; blank methods
// fall back to CASH.
func rankPaymentMethods(valid []models.Order) []RankedEntry {
	totals := make(map[string]*RankedEntry)
	var order []string
	for _, o := range valid {
		method := o.PaymentMethod
		if method == "" {
			method = models.DefaultPaymentMethod
		}
		entry, ok := totals[method]
		if !ok {
			entry = &RankedEntry{Name: method}
			totals[method] = entry
			order = append(order, method)
		}
		entry.Count++
		entry.Revenue += o.TotalAmount
	}

	ranked := make([]RankedEntry, 0, len(order))
	for _, method := range order {
		ranked = append(ranked, *totals[method])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
