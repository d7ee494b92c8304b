package report

// StatusCount is one row of a per-status aggregate.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type WorkTypeCount struct {
	WorkType string `json:"work_type"`
	Count    int64  `json:"count"`
}

type ShopPermitCount struct {
	ShopID   int64  `json:"shop_id"`
	ShopName string `json:"shop_name"`
	Count    int64  `json:"count"`
}

// PermitReport aggregates permit volumes across status, work type, and shop.
type PermitReport struct {
	Total      int64             `json:"total"`
	ByStatus   []StatusCount     `json:"by_status"`
	ByWorkType []WorkTypeCount   `json:"by_work_type"`
	ByShop     []ShopPermitCount `json:"by_shop"`
}

type ShopsReport struct {
	TotalShops  int64             `json:"total_shops"`
	ActiveShops int64             `json:"active_shops"`
	ByPermits   []ShopPermitCount `json:"by_permits"`
}

// DashboardSummary is the front-page snapshot.
type DashboardSummary struct {
	TotalPermits    int64 `json:"total_permits"`
	PendingPermits  int64 `json:"pending_permits"`
	ActivePermits   int64 `json:"active_permits"`
	ApprovedPermits int64 `json:"approved_permits"`
	TotalShops      int64 `json:"total_shops"`
	ActiveShops     int64 `json:"active_shops"`
}
