package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ventapos/terminal/internal/domain"
	"ventapos/terminal/internal/store"
	"ventapos/terminal/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	salesByID       map[string]domain.SaleRecord
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Passwords are read from SEED_ADMIN_PASSWORD and SEED_SELLER_PASSWORD; if
// unset, hardcoded dev defaults are used with a warning. Production runs use
// PostgreSQL (DATABASE_URL) and never hit this path.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	sellerPwd := envOr("SEED_SELLER_PASSWORD", "seller123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_SELLER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_SELLER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username   string
		password   string
		role       string
		employeeID string
		branchID   string
	}{
		{"admin", adminPwd, domain.RoleAdmin, "emp-admin", "branch-central"},
		{"seller", sellerPwd, domain.RoleSeller, "emp-001", "branch-central"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:   u.username,
			Password:   string(hash),
			Role:       u.role,
			EmployeeID: u.employeeID,
			BranchID:   u.branchID,
			Active:     true,
			CreatedAt:  now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	return &Store{
		salesByID:       make(map[string]domain.SaleRecord),
		usersByUsername: seedUsers(),
	}
}

func (s *Store) RecordSale(_ context.Context, record domain.SaleRecord) (*domain.SaleRecord, error) {
	if record.EmployeeID == "" || record.ClientID == "" || len(record.Items) == 0 {
		return nil, store.ErrInvalidRecord
	}
	if record.ID == "" {
		record.ID = xid.New("sale")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.salesByID[record.ID]; exists {
		return nil, store.ErrInvalidRecord
	}
	s.salesByID[record.ID] = record
	saved := record
	return &saved, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	saved := record
	return &saved, nil
}

func (s *Store) ListSalesByEmployee(_ context.Context, employeeID string, limit int) ([]domain.SaleRecord, error) {
	if limit < 1 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.SaleRecord, 0, len(s.salesByID))
	for _, record := range s.salesByID {
		if record.EmployeeID != employeeID {
			continue
		}
		records = append(records, record)
	}

	slices.SortFunc(records, func(a, b domain.SaleRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || user.Password == "" {
		return store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidRecord
	}
	user.Username = username
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}
