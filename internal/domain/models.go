package domain

import "time"

// Product is one entry of the catalog snapshot. Stock is authoritative on the
// external Catalog API; this process only reads it.
type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	BranchID   string `json:"branch_id,omitempty"`
	BranchName string `json:"branch_name,omitempty"`
}

type Client struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CartLine snapshots the product name and unit price at add time. Subtotal is
// derived and recomputed on every mutation.
type CartLine struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Qty            int    `json:"qty"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type CartView struct {
	ClientID   string     `json:"client_id,omitempty"`
	Lines      []CartLine `json:"lines"`
	TotalCents int64      `json:"total_cents"`
	ItemCount  int        `json:"item_count"`
}

type AddLineRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type SelectClientRequest struct {
	ClientID string `json:"client_id"`
}

type SaleItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// SaleRequest is the immutable submission payload sent to the Sales API. The
// cart is the mutable pre-image; this is built only at submit time.
type SaleRequest struct {
	ClientID   string     `json:"client_id"`
	EmployeeID string     `json:"employee_id"`
	BranchID   string     `json:"branch_id"`
	Items      []SaleItem `json:"items"`
}

// SaleConfirmation is the Sales API success payload.
type SaleConfirmation struct {
	ID         string `json:"id"`
	TotalCents int64  `json:"total_cents"`
	CreatedAt  string `json:"created_at"`
}

// SaleRecord is the local journal entry for a successfully submitted sale.
type SaleRecord struct {
	ID         string     `json:"id"`
	RemoteID   string     `json:"remote_id,omitempty"`
	ClientID   string     `json:"client_id"`
	EmployeeID string     `json:"employee_id"`
	BranchID   string     `json:"branch_id"`
	TotalCents int64      `json:"total_cents"`
	Items      []SaleItem `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
}

type SubmitResponse struct {
	SaleID     string `json:"sale_id"`
	TotalCents int64  `json:"total_cents"`
	ItemCount  int    `json:"item_count"`
	CreatedAt  string `json:"created_at"`
}

type CatalogResponse struct {
	Products  []Product `json:"products"`
	Clients   []Client  `json:"clients"`
	FetchedAt string    `json:"fetched_at"`
}

// CatalogSnapshot is the provider-held (and cached) form of one catalog load.
// It is replaced wholesale on reload and trusted until then.
type CatalogSnapshot struct {
	BranchID  string    `json:"branch_id"`
	Products  []Product `json:"products"`
	Clients   []Client  `json:"clients"`
	FetchedAt time.Time `json:"fetched_at"`
}

type MySalesResponse struct {
	Sales []SaleRecord `json:"sales"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	EmployeeID  string `json:"employee_id"`
	BranchID    string `json:"branch_id"`
	ExpiresAt   string `json:"expires_at"`
}

// Session is the ambient context of the acting salesperson, extracted from the
// access token and passed explicitly to the service layer.
type Session struct {
	Username   string
	Role       string
	EmployeeID string
	BranchID   string
}

type SellerCreateRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	EmployeeID string `json:"employee_id"`
	BranchID   string `json:"branch_id"`
}

type SellerUser struct {
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	EmployeeID string    `json:"employee_id"`
	BranchID   string    `json:"branch_id"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for terminal auth credentials.
type UserAccount struct {
	Username   string
	Password   string
	Role       string
	EmployeeID string
	BranchID   string
	Active     bool
	CreatedAt  time.Time
}

const (
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)
