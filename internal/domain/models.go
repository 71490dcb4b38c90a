package domain

import "time"

// Enumerations
const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleStaff   UserRole = "staff"

	MovementSale       MovementType = "sale"
	MovementPurchase   MovementType = "purchase"
	MovementAdjustment MovementType = "adjustment"
	MovementReturn     MovementType = "return"
	MovementDamage     MovementType = "damage"
	MovementTransfer   MovementType = "transfer"

	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"

	TaxAppliesAll        TaxScope = "all"
	TaxAppliesProducts   TaxScope = "products"
	TaxAppliesServices   TaxScope = "services"
	TaxAppliesCategories TaxScope = "categories"

	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingNoShow    BookingStatus = "no_show"

	TransactionPaid   TransactionStatus = "paid"
	TransactionRefund TransactionStatus = "refund"
	TransactionVoid   TransactionStatus = "void"

	PurchaseOrderSuggested PurchaseOrderStatus = "suggested"
	PurchaseOrderOrdered   PurchaseOrderStatus = "ordered"
	PurchaseOrderReceived  PurchaseOrderStatus = "received"
	PurchaseOrderCancelled PurchaseOrderStatus = "cancelled"

	ConflictLastWriteWins ConflictPolicy = "last-write-wins"
	ConflictManual        ConflictPolicy = "manual"

	DrawerOpen   DrawerStatus = "open"
	DrawerClosed DrawerStatus = "closed"
)

type UserRole string
type MovementType string
type DiscountType string
type TaxScope string
type BookingStatus string
type TransactionStatus string
type PurchaseOrderStatus string
type ConflictPolicy string
type DrawerStatus string

// ValidMovementType reports whether t is one of the known movement types.
func ValidMovementType(t MovementType) bool {
	switch t {
	case MovementSale, MovementPurchase, MovementAdjustment, MovementReturn, MovementDamage, MovementTransfer:
		return true
	}
	return false
}

type Money struct {
	Amount   int64
	Currency string
}

type Tenant struct {
	ID        int64
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// TenantSettings is the typed per-tenant configuration row. Every field has a
// server-side default so jobs never branch on a missing document.
type TenantSettings struct {
	TenantID             int64
	TaxEnabled           bool
	TaxRate              float64
	TaxLabel             string
	AllowOutOfStockSales bool
	LowStockThreshold    int
	Notifications        bool
	ConflictPolicy       ConflictPolicy
	PriceMinMultiplier   float64
	PriceMaxMultiplier   float64
	CurrencyCode         string
	UpdatedAt            time.Time
}

type Product struct {
	ID             int64
	TenantID       int64
	Name           string
	CategoryID     *int64
	Price          Money
	BasePrice      Money
	TrackInventory bool
	Active         bool
	Stock          int
	ReorderPoint   *int
	BranchStock    map[int64]int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// StockMovement is one immutable ledger entry. Rows are insert-only; the
// newStock == previousStock + quantity invariant is enforced at write time.
type StockMovement struct {
	ID            int64
	TenantID      int64
	ProductID     int64
	BranchID      *int64
	Type          MovementType
	Quantity      int
	PreviousStock int
	NewStock      int
	TransactionID *int64
	UserID        *int64
	Reason        string
	Notes         string
	CreatedAt     time.Time
}

type DiscountRule struct {
	ID                int64
	TenantID          int64
	Code              string
	Type              DiscountType
	Value             float64
	MinPurchaseAmount *int64
	MaxDiscountAmount *int64
	UsageLimit        *int
	UsageCount        int
	ValidFrom         time.Time
	ValidUntil        time.Time
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type TaxRule struct {
	ID          int64
	TenantID    int64
	Rate        float64
	Label       string
	AppliesTo   TaxScope
	CategoryIDs []int64
	ProductIDs  []int64
	Priority    int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Booking struct {
	ID           int64
	TenantID     int64
	CustomerID   *int64
	CustomerName string
	Contact      string
	ServiceName  string
	StartTime    time.Time
	Status       BookingStatus
	ReminderSent bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Attendance struct {
	ID           int64
	TenantID     int64
	EmployeeID   *int64
	EmployeeName string
	Date         time.Time
	ClockIn      *time.Time
	ClockOut     *time.Time
	AutoClockOut bool
	CreatedAt    time.Time
}

type CashDrawerSession struct {
	ID           int64
	TenantID     int64
	OperatorName string
	OpenedAt     time.Time
	ClosedAt     *time.Time
	Status       DrawerStatus
	AutoClosed   bool
	OpeningFloat Money
	ClosingTotal *Money
}

type Transaction struct {
	ID           int64
	TenantID     int64
	Code         string
	Amount       Money
	Status       TransactionStatus
	DiscountCode *string
	OperatorName string
	RefundedAt   *time.Time
	VoidedAt     *time.Time
	CreatedAt    time.Time
	Items        []TransactionItem
}

type TransactionItem struct {
	ID            int64
	TransactionID int64
	ProductID     *int64
	Name          string
	Price         Money
	Qty           int
}

type SavedCart struct {
	ID            int64
	TenantID      int64
	CustomerID    *int64
	Contact       string
	Total         Money
	ItemCount     int
	ReminderSent  bool
	CompletedTxID *int64
	UpdatedAt     time.Time
	CreatedAt     time.Time
}

type PurchaseOrder struct {
	ID        int64
	TenantID  int64
	ProductID int64
	Quantity  int
	Status    PurchaseOrderStatus
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SyncRecord is one branch's view of an entity, flagged dirty when the branch
// reports a local change that has not been reconciled yet.
type SyncRecord struct {
	ID         int64
	TenantID   int64
	EntityType string
	EntityID   int64
	BranchID   int64
	Checksum   string
	Dirty      bool
	UpdatedAt  time.Time
}

type SyncConflict struct {
	ID         string
	TenantID   int64
	EntityType string
	EntityID   int64
	BranchIDs  []int64
	Detected   time.Time
	Resolved   bool
}

type SecurityAlert struct {
	ID           string
	TenantID     int64
	Actor        string
	Reason       string
	Refunds      int
	Voids        int
	Discounts    int
	FailedLogins int
	PeriodStart  time.Time
	CreatedAt    time.Time
}

// AuditLogEntry is write-once; Changes carries an entity-specific JSON payload.
type AuditLogEntry struct {
	ID         int64
	TenantID   int64
	Action     string
	EntityType string
	EntityID   int64
	Changes    map[string]any
	Actor      string
	CreatedAt  time.Time
}

// JobRunResult is the uniform result contract every automation job returns.
type JobRunResult struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}
