package store

import (
	"context"
	"errors"

	"ventapos/terminal/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid record")
)

// Repository is the local sale journal plus terminal user accounts. Submitted
// sales live authoritatively on the external Sales API; the journal only keeps
// what this terminal sent, so a salesperson can list their own sales.
type Repository interface {
	RecordSale(ctx context.Context, record domain.SaleRecord) (*domain.SaleRecord, error)
	GetSale(ctx context.Context, id string) (*domain.SaleRecord, error)
	ListSalesByEmployee(ctx context.Context, employeeID string, limit int) ([]domain.SaleRecord, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
