package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"ventapos/terminal/internal/cart"
	"ventapos/terminal/internal/domain"
	"ventapos/terminal/internal/store"
	"ventapos/terminal/internal/xid"
)

var (
	ErrNoSession      = errors.New("missing session context")
	ErrUnknownProduct = errors.New("product not found in catalog")
	ErrSubmitInFlight = errors.New("a submission is already in progress")
)

type sessionContextKey struct{}

func WithSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(domain.Session)
	return session, ok
}

// CatalogSource is implemented by catalog.Provider.
type CatalogSource interface {
	Snapshot(ctx context.Context, branchID string) (domain.CatalogSnapshot, error)
	Product(ctx context.Context, branchID string, productID string) (domain.Product, bool, error)
}

// SaleSubmitter is implemented by salesclient.Client.
type SaleSubmitter interface {
	Create(ctx context.Context, sale domain.SaleRequest) (*domain.SaleConfirmation, error)
}

// RefreshFunc receives the refresh event emitted after a successful submit so
// a catalog provider can re-fetch and reflect server-side stock decrements.
type RefreshFunc func(ctx context.Context, branchID string)

// Service owns one cart per authenticated session and drives the whole sale
// composition workflow: catalog reads, draft mutations, submission, journal.
type Service struct {
	mu          sync.Mutex
	carts       map[string]*sessionCart
	catalog     CatalogSource
	sales       SaleSubmitter
	journal     store.Repository
	logger      *zap.Logger
	refreshSubs []RefreshFunc
}

type sessionCart struct {
	cart       *cart.Cart
	submitting bool
}

func New(catalog CatalogSource, sales SaleSubmitter, journal store.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		carts:   make(map[string]*sessionCart),
		catalog: catalog,
		sales:   sales,
		journal: journal,
		logger:  logger,
	}
}

// OnRefresh subscribes fn to the refresh event emitted after each successful
// submission. Subscribe during wiring, before the service takes traffic.
func (s *Service) OnRefresh(fn RefreshFunc) {
	s.refreshSubs = append(s.refreshSubs, fn)
}

func (s *Service) Catalog(ctx context.Context) (domain.CatalogResponse, error) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return domain.CatalogResponse{}, ErrNoSession
	}

	snapshot, err := s.catalog.Snapshot(ctx, session.BranchID)
	if err != nil {
		return domain.CatalogResponse{}, err
	}

	return domain.CatalogResponse{
		Products:  snapshot.Products,
		Clients:   snapshot.Clients,
		FetchedAt: snapshot.FetchedAt.Format(time.RFC3339),
	}, nil
}

func (s *Service) CartView(ctx context.Context) (domain.CartView, error) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return domain.CartView{}, ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartForLocked(session.Username).cart.View(), nil
}

func (s *Service) AddLine(ctx context.Context, req domain.AddLineRequest) (domain.CartView, error) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return domain.CartView{}, ErrNoSession
	}
	if req.Qty < 1 {
		return domain.CartView{}, cart.ErrInvalidQuantity
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		return domain.CartView{}, ErrUnknownProduct
	}

	product, found, err := s.catalog.Product(ctx, session.BranchID, productID)
	if err != nil {
		return domain.CartView{}, err
	}
	if !found {
		return domain.CartView{}, ErrUnknownProduct
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc := s.cartForLocked(session.Username)
	if err := sc.cart.AddLine(product, req.Qty); err != nil {
		return domain.CartView{}, err
	}
	return sc.cart.View(), nil
}

func (s *Service) RemoveLine(ctx context.Context, productID string) (domain.CartView, error) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return domain.CartView{}, ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc := s.cartForLocked(session.Username)
	sc.cart.RemoveLine(strings.TrimSpace(productID))
	return sc.cart.View(), nil
}

// SelectClient trusts the catalog snapshot optimistically; the Sales API is
// authoritative and rejects unknown clients at submit time.
func (s *Service) SelectClient(ctx context.Context, req domain.SelectClientRequest) (domain.CartView, error) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return domain.CartView{}, ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc := s.cartForLocked(session.Username)
	sc.cart.SelectClient(strings.TrimSpace(req.ClientID))
	return sc.cart.View(), nil
}

func (s *Service) Reset(ctx context.Context) error {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cartForLocked(session.Username).cart.Reset()
	return nil
}

// Submit builds the immutable sale payload from the draft and sends it to the
// Sales API. Success clears the cart, journals the sale and emits the catalog
// refresh event; failure leaves the draft exactly as it was so the user can
// retry. The payload is snapshotted under the lock and the network call runs
// outside it, so other sessions are never blocked on the round-trip.
func (s *Service) Submit(ctx context.Context) (domain.SubmitResponse, error) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return domain.SubmitResponse{}, ErrNoSession
	}

	s.mu.Lock()
	sc := s.cartForLocked(session.Username)
	if sc.submitting {
		s.mu.Unlock()
		return domain.SubmitResponse{}, ErrSubmitInFlight
	}
	if sc.cart.ClientID() == "" {
		s.mu.Unlock()
		return domain.SubmitResponse{}, cart.ErrNoClientSelected
	}
	if sc.cart.Empty() {
		s.mu.Unlock()
		return domain.SubmitResponse{}, cart.ErrEmptyCart
	}

	saleReq := domain.SaleRequest{
		ClientID:   sc.cart.ClientID(),
		EmployeeID: session.EmployeeID,
		BranchID:   session.BranchID,
		Items:      sc.cart.Items(),
	}
	totalCents := sc.cart.TotalCents()
	sc.submitting = true
	s.mu.Unlock()

	confirmation, err := s.sales.Create(ctx, saleReq)

	s.mu.Lock()
	sc.submitting = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("sale submission failed",
			zap.String("employee_id", session.EmployeeID),
			zap.String("branch_id", session.BranchID),
			zap.Error(err),
		)
		return domain.SubmitResponse{}, err
	}
	sc.cart.Reset()
	s.mu.Unlock()

	record := domain.SaleRecord{
		ID:         xid.New("sale"),
		RemoteID:   confirmation.ID,
		ClientID:   saleReq.ClientID,
		EmployeeID: saleReq.EmployeeID,
		BranchID:   saleReq.BranchID,
		TotalCents: totalCents,
		Items:      saleReq.Items,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.journal.RecordSale(ctx, record); err != nil {
		s.logger.Warn("failed to journal sale", zap.String("sale_id", record.ID), zap.Error(err))
	}

	s.notifyRefresh(session.BranchID)

	s.logger.Info("sale submitted",
		zap.String("sale_id", record.ID),
		zap.String("remote_id", confirmation.ID),
		zap.String("employee_id", saleReq.EmployeeID),
		zap.Int64("total_cents", totalCents),
		zap.Int("items", len(saleReq.Items)),
	)

	saleID := confirmation.ID
	if saleID == "" {
		saleID = record.ID
	}
	return domain.SubmitResponse{
		SaleID:     saleID,
		TotalCents: totalCents,
		ItemCount:  len(saleReq.Items),
		CreatedAt:  record.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *Service) MySales(ctx context.Context, limit int) (domain.MySalesResponse, error) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return domain.MySalesResponse{}, ErrNoSession
	}

	records, err := s.journal.ListSalesByEmployee(ctx, session.EmployeeID, limit)
	if err != nil {
		return domain.MySalesResponse{}, err
	}
	return domain.MySalesResponse{Sales: records}, nil
}

// notifyRefresh runs subscribers with a detached timeout context: the refresh
// must proceed even when the submit request context is already done.
func (s *Service) notifyRefresh(branchID string) {
	refreshCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, fn := range s.refreshSubs {
		fn(refreshCtx, branchID)
	}
}

func (s *Service) cartForLocked(username string) *sessionCart {
	sc, ok := s.carts[username]
	if !ok {
		sc = &sessionCart{cart: cart.New()}
		s.carts[username] = sc
	}
	return sc
}
