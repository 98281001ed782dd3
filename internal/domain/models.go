package domain

import "time"

type Product struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Quantity          int       `json:"quantity"`
	Unit              string    `json:"unit"`
	CostPriceKobo     int64     `json:"cost_price_kobo"`
	SellingPriceKobo  int64     `json:"selling_price_kobo"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	Description       string    `json:"description,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type ProductCreateRequest struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	Quantity          int    `json:"quantity"`
	Unit              string `json:"unit"`
	CostPriceKobo     int64  `json:"cost_price_kobo"`
	SellingPriceKobo  int64  `json:"selling_price_kobo"`
	LowStockThreshold int    `json:"low_stock_threshold"`
	Description       string `json:"description,omitempty"`
}

type ProductUpdateRequest struct {
	Name              *string `json:"name,omitempty"`
	Category          *string `json:"category,omitempty"`
	Quantity          *int    `json:"quantity,omitempty"`
	Unit              *string `json:"unit,omitempty"`
	CostPriceKobo     *int64  `json:"cost_price_kobo,omitempty"`
	SellingPriceKobo  *int64  `json:"selling_price_kobo,omitempty"`
	LowStockThreshold *int    `json:"low_stock_threshold,omitempty"`
	Description       *string `json:"description,omitempty"`
}

type SaleItem struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	Quantity      int    `json:"quantity"`
	UnitPriceKobo int64  `json:"unit_price_kobo"`
	LineTotalKobo int64  `json:"line_total_kobo"`
}

type Sale struct {
	ID              string     `json:"id"`
	Items           []SaleItem `json:"items"`
	TotalAmountKobo int64      `json:"total_amount_kobo"`
	PaymentMethod   string     `json:"payment_method"`
	SalesRepID      string     `json:"sales_rep_id"`
	SalesRepName    string     `json:"sales_rep_name"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}

type SaleItemInput struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name,omitempty"`
	Quantity      int    `json:"quantity"`
	UnitPriceKobo int64  `json:"unit_price_kobo"`
}

type SaleCreateRequest struct {
	Items         []SaleItemInput `json:"items"`
	PaymentMethod string          `json:"payment_method"`
	SalesRepID    string          `json:"sales_rep_id,omitempty"`
	SalesRepName  string          `json:"sales_rep_name,omitempty"`
}

type StockLogEntry struct {
	ID               string    `json:"id"`
	ProductID        string    `json:"product_id"`
	ProductName      string    `json:"product_name"`
	Type             string    `json:"type"`
	Quantity         int       `json:"quantity"`
	PreviousQuantity int       `json:"previous_quantity"`
	NewQuantity      int       `json:"new_quantity"`
	Note             string    `json:"note,omitempty"`
	UserID           string    `json:"user_id"`
	UserName         string    `json:"user_name"`
	CreatedAt        time.Time `json:"created_at"`
}

type StockAddRequest struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note,omitempty"`
}

type SalesRep struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	PINHash        string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	TodaySalesKobo int64     `json:"today_sales_kobo"`
	TotalSalesKobo int64     `json:"total_sales_kobo"`
	CreatedAt      time.Time `json:"created_at"`
}

type SalesRepCreateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

type SalesRepUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	PIN      *string `json:"pin,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type Activity struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	AmountKobo int64     `json:"amount_kobo,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RepLoginRequest struct {
	SalesRepID string `json:"sales_rep_id"`
	PIN        string `json:"pin"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	ID   string
	Name string
	Role string
}

type DailySalesPoint struct {
	Date       string `json:"date"`
	SalesKobo  int64  `json:"sales_kobo"`
	ProfitKobo int64  `json:"profit_kobo"`
}

type DailySeriesReport struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Points      []DailySalesPoint `json:"points"`
}

type CategoryValuation struct {
	Category  string `json:"category"`
	ValueKobo int64  `json:"value_kobo"`
}

type WeekOverWeekReport struct {
	ThisWeekKobo  int64   `json:"this_week_kobo"`
	LastWeekKobo  int64   `json:"last_week_kobo"`
	ChangePercent float64 `json:"change_percent"`
}

type ReconciliationReport struct {
	Date             string `json:"date"`
	CashKobo         int64  `json:"cash_kobo"`
	TransferKobo     int64  `json:"transfer_kobo"`
	POSKobo          int64  `json:"pos_kobo"`
	CashReceivedKobo int64  `json:"cash_received_kobo"`
	DifferenceKobo   int64  `json:"difference_kobo"`
	IsBalanced       bool   `json:"is_balanced"`
	Verdict          string `json:"verdict"`
}

const (
	SaleStatusPending  = "pending"
	SaleStatusApproved = "approved"
	SaleStatusDisputed = "disputed"
)

const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
	PaymentMethodPOS      = "pos"
	PaymentMethodCredit   = "credit"
)

const (
	StockLogTypeAdd        = "add"
	StockLogTypeSale       = "sale"
	StockLogTypeAdjustment = "adjustment"
)

const (
	ActivityTypeSale     = "sale"
	ActivityTypeStock    = "stock"
	ActivityTypeLogin    = "login"
	ActivityTypeApproval = "approval"
)

const (
	RoleOwner = "owner"
	RoleRep   = "rep"
)

// OwnerActor is the fallback acting identity for operations performed
// without a signed-in sales rep.
var OwnerActor = Actor{ID: "owner", Name: "Owner", Role: RoleOwner}
