package memory

import (
	"context"
	"errors"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"stocksight/backend/internal/domain"
	"stocksight/backend/internal/snapshot"
	"stocksight/backend/internal/store"
	"stocksight/backend/internal/xid"
)

const defaultActivityCap = 500

// Store owns the five collections and every operation allowed to mutate
// them, so that each mutation carries its side effects (ledger entry,
// counter updates, snapshot persist) in one step under one lock.
type Store struct {
	mu          sync.RWMutex
	products    map[string]domain.Product
	sales       map[string]*domain.Sale
	stockLogs   []domain.StockLogEntry
	salesReps   map[string]domain.SalesRep
	activities  []domain.Activity
	revision    uint64
	activityCap int
	persister   snapshot.Persister
}

// Open restores the store from the persister's snapshot, or starts empty
// when none exists yet.
func Open(ctx context.Context, persister snapshot.Persister, activityCap int) (*Store, error) {
	if persister == nil {
		persister = snapshot.Noop{}
	}
	if activityCap < 1 {
		activityCap = defaultActivityCap
	}

	s := &Store{
		products:    make(map[string]domain.Product),
		sales:       make(map[string]*domain.Sale),
		stockLogs:   make([]domain.StockLogEntry, 0, 128),
		salesReps:   make(map[string]domain.SalesRep),
		activities:  make([]domain.Activity, 0, 128),
		activityCap: activityCap,
		persister:   persister,
	}

	state, err := persister.Load(ctx)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			return s, nil
		}
		return nil, err
	}

	for _, p := range state.Products {
		s.products[p.ID] = p
	}
	for _, sale := range state.Sales {
		saleCopy := cloneSale(sale)
		s.sales[sale.ID] = &saleCopy
	}
	s.stockLogs = append(s.stockLogs, state.StockLogs...)
	for _, rep := range state.SalesReps {
		s.salesReps[rep.ID] = rep
	}
	s.activities = append(s.activities, state.Activities...)
	s.trimActivitiesLocked()
	s.revision = state.Revision

	return s, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmpString(a.ID, b.ID)
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrInvalidArgument
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	s.products[product.ID] = product
	s.commitLocked(ctx)
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.products[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()

	s.products[product.ID] = product
	s.commitLocked(ctx)
	updated := product
	return &updated, nil
}

// DeleteProduct hard-removes the product. Sales and stock log entries that
// reference it keep their snapshotted names and are never cleaned up.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	s.commitLocked(ctx)
	return nil
}

func (s *Store) AddStock(ctx context.Context, productID string, quantity int, note string, actor domain.Actor) (*domain.StockLogEntry, error) {
	if quantity < 1 {
		return nil, store.ErrInvalidArgument
	}
	if actor.ID == "" {
		actor = domain.OwnerActor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[productID]
	if !exists {
		return nil, store.ErrNotFound
	}

	now := time.Now().UTC()
	entry := domain.StockLogEntry{
		ID:               xid.New("slog"),
		ProductID:        productID,
		ProductName:      product.Name,
		Type:             domain.StockLogTypeAdd,
		Quantity:         quantity,
		PreviousQuantity: product.Quantity,
		NewQuantity:      product.Quantity + quantity,
		Note:             strings.TrimSpace(note),
		UserID:           actor.ID,
		UserName:         actor.Name,
		CreatedAt:        now,
	}

	product.Quantity += quantity
	product.UpdatedAt = now
	s.products[productID] = product
	s.stockLogs = append(s.stockLogs, entry)
	s.commitLocked(ctx)

	created := entry
	return &created, nil
}

func (s *Store) ListStockLogs(_ context.Context, productID string, limit int) ([]domain.StockLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockLogEntry, 0, len(s.stockLogs))
	for _, entry := range s.stockLogs {
		if productID != "" && entry.ProductID != productID {
			continue
		}
		result = append(result, entry)
	}
	slices.SortFunc(result, func(a, b domain.StockLogEntry) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// RecordSale stores the sale and, in the same step, decrements stock and
// appends a sale-type ledger entry for every line whose product still
// exists, and bumps the matching rep's running totals. Lines referencing a
// vanished product keep their snapshotted name and touch nothing else.
func (s *Store) RecordSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, store.ErrInvalidArgument
	}
	if sale.Status == "" {
		sale.Status = domain.SaleStatusPending
	}
	if sale.Status != domain.SaleStatusPending && sale.Status != domain.SaleStatusApproved {
		return nil, store.ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate every line before touching anything so a rejected sale
	// leaves the store unchanged. Decrements are accumulated per product
	// so duplicate lines cannot oversell in aggregate.
	total := int64(0)
	pending := make(map[string]int, len(sale.Items))
	items := make([]domain.SaleItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		if item.Quantity < 1 || item.UnitPriceKobo < 0 {
			return nil, store.ErrInvalidArgument
		}
		if product, exists := s.products[item.ProductID]; exists {
			pending[item.ProductID] += item.Quantity
			if product.Quantity < pending[item.ProductID] {
				return nil, store.ErrInsufficientStock
			}
			item.ProductName = product.Name
		}
		item.LineTotalKobo = int64(item.Quantity) * item.UnitPriceKobo
		total += item.LineTotalKobo
		items = append(items, item)
	}

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if _, exists := s.sales[sale.ID]; exists {
		return nil, store.ErrInvalidArgument
	}
	now := time.Now().UTC()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = now
	}
	sale.Items = items
	sale.TotalAmountKobo = total

	for _, item := range sale.Items {
		product, exists := s.products[item.ProductID]
		if !exists {
			continue
		}
		s.stockLogs = append(s.stockLogs, domain.StockLogEntry{
			ID:               xid.New("slog"),
			ProductID:        item.ProductID,
			ProductName:      product.Name,
			Type:             domain.StockLogTypeSale,
			Quantity:         item.Quantity,
			PreviousQuantity: product.Quantity,
			NewQuantity:      product.Quantity - item.Quantity,
			UserID:           sale.SalesRepID,
			UserName:         sale.SalesRepName,
			CreatedAt:        now,
		})
		product.Quantity -= item.Quantity
		product.UpdatedAt = now
		s.products[item.ProductID] = product
	}

	if rep, exists := s.salesReps[sale.SalesRepID]; exists {
		rep.TodaySalesKobo += sale.TotalAmountKobo
		rep.TotalSalesKobo += sale.TotalAmountKobo
		s.salesReps[sale.SalesRepID] = rep
	}

	saleCopy := cloneSale(sale)
	s.sales[sale.ID] = &saleCopy
	s.commitLocked(ctx)

	result := cloneSale(saleCopy)
	return &result, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.sales[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	result := cloneSale(*sale)
	return &result, nil
}

func (s *Store) ListSales(_ context.Context, limit int) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		result = append(result, cloneSale(*sale))
	}
	slices.SortFunc(result, func(a, b domain.Sale) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) ApproveSale(ctx context.Context, id string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.sales[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if sale.Status != domain.SaleStatusPending {
		return nil, store.ErrSaleFinalized
	}

	sale.Status = domain.SaleStatusApproved
	s.commitLocked(ctx)
	result := cloneSale(*sale)
	return &result, nil
}

// DisputeSale reverses the sale: every line whose product still exists is
// restocked with an adjustment ledger entry, and the rep's running totals
// are decremented, clamped at zero. Only pending sales can be disputed;
// approved and disputed are terminal, which makes double reversal
// impossible.
func (s *Store) DisputeSale(ctx context.Context, id string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.sales[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if sale.Status != domain.SaleStatusPending {
		return nil, store.ErrSaleFinalized
	}

	now := time.Now().UTC()
	for _, item := range sale.Items {
		product, exists := s.products[item.ProductID]
		if !exists {
			continue
		}
		s.stockLogs = append(s.stockLogs, domain.StockLogEntry{
			ID:               xid.New("slog"),
			ProductID:        item.ProductID,
			ProductName:      product.Name,
			Type:             domain.StockLogTypeAdjustment,
			Quantity:         item.Quantity,
			PreviousQuantity: product.Quantity,
			NewQuantity:      product.Quantity + item.Quantity,
			Note:             "restock from disputed sale " + sale.ID,
			UserID:           domain.OwnerActor.ID,
			UserName:         domain.OwnerActor.Name,
			CreatedAt:        now,
		})
		product.Quantity += item.Quantity
		product.UpdatedAt = now
		s.products[item.ProductID] = product
	}

	if rep, exists := s.salesReps[sale.SalesRepID]; exists {
		rep.TodaySalesKobo = maxInt64(0, rep.TodaySalesKobo-sale.TotalAmountKobo)
		rep.TotalSalesKobo = maxInt64(0, rep.TotalSalesKobo-sale.TotalAmountKobo)
		s.salesReps[sale.SalesRepID] = rep
	}

	sale.Status = domain.SaleStatusDisputed
	s.commitLocked(ctx)
	result := cloneSale(*sale)
	return &result, nil
}

func (s *Store) CreateSalesRep(ctx context.Context, rep domain.SalesRep) (*domain.SalesRep, error) {
	rep.Name = strings.TrimSpace(rep.Name)
	if rep.Name == "" {
		return nil, store.ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rep.ID == "" {
		rep.ID = xid.New("rep")
	}
	if _, exists := s.salesReps[rep.ID]; exists {
		return nil, store.ErrInvalidArgument
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now().UTC()
	}
	rep.TodaySalesKobo = 0
	rep.TotalSalesKobo = 0

	s.salesReps[rep.ID] = rep
	s.commitLocked(ctx)
	created := rep
	return &created, nil
}

func (s *Store) GetSalesRep(_ context.Context, id string) (*domain.SalesRep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, exists := s.salesReps[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyRep := rep
	return &copyRep, nil
}

func (s *Store) ListSalesReps(_ context.Context) ([]domain.SalesRep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reps := make([]domain.SalesRep, 0, len(s.salesReps))
	for _, rep := range s.salesReps {
		reps = append(reps, rep)
	}
	slices.SortFunc(reps, func(a, b domain.SalesRep) int {
		if a.Name == b.Name {
			return cmpString(a.ID, b.ID)
		}
		return cmpString(a.Name, b.Name)
	})
	return reps, nil
}

func (s *Store) UpdateSalesRep(ctx context.Context, rep domain.SalesRep) (*domain.SalesRep, error) {
	rep.Name = strings.TrimSpace(rep.Name)
	if rep.Name == "" {
		return nil, store.ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.salesReps[rep.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	rep.CreatedAt = existing.CreatedAt
	if rep.TodaySalesKobo < 0 || rep.TotalSalesKobo < 0 {
		return nil, store.ErrInvalidArgument
	}

	s.salesReps[rep.ID] = rep
	s.commitLocked(ctx)
	updated := rep
	return &updated, nil
}

// DeleteSalesRep is a hard delete. Sales already attributed to the rep
// keep their snapshotted id and name.
func (s *Store) DeleteSalesRep(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.salesReps[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.salesReps, id)
	s.commitLocked(ctx)
	return nil
}

func (s *Store) AddActivity(ctx context.Context, activity domain.Activity) (*domain.Activity, error) {
	if strings.TrimSpace(activity.Message) == "" {
		return nil, store.ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if activity.ID == "" {
		activity.ID = xid.New("act")
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	s.activities = append(s.activities, activity)
	s.trimActivitiesLocked()
	s.commitLocked(ctx)

	created := activity
	return &created, nil
}

func (s *Store) ListActivities(_ context.Context, limit int) ([]domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Activity, len(s.activities))
	copy(result, s.activities)
	slices.SortFunc(result, func(a, b domain.Activity) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Revision increments on every successful mutation. Derived-report caches
// key on it so a cached value can never outlive the state it was built from.
func (s *Store) Revision(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision, nil
}

// commitLocked bumps the revision and writes the snapshot. Persist errors
// are logged, never surfaced: a mutation that already applied in memory
// must not be reported as failed.
func (s *Store) commitLocked(ctx context.Context) {
	s.revision++
	if err := s.persister.Save(ctx, s.stateLocked()); err != nil {
		log.Printf("[memory-store] WARN: failed to persist snapshot rev=%d: %v", s.revision, err)
	}
}

func (s *Store) stateLocked() snapshot.State {
	state := snapshot.State{
		SchemaVersion: snapshot.SchemaVersion,
		Products:      make([]domain.Product, 0, len(s.products)),
		Sales:         make([]domain.Sale, 0, len(s.sales)),
		StockLogs:     make([]domain.StockLogEntry, len(s.stockLogs)),
		SalesReps:     make([]domain.SalesRep, 0, len(s.salesReps)),
		Activities:    make([]domain.Activity, len(s.activities)),
		Revision:      s.revision,
		SavedAt:       time.Now().UTC(),
	}
	for _, p := range s.products {
		state.Products = append(state.Products, p)
	}
	slices.SortFunc(state.Products, func(a, b domain.Product) int {
		return cmpString(a.ID, b.ID)
	})
	for _, sale := range s.sales {
		state.Sales = append(state.Sales, cloneSale(*sale))
	}
	slices.SortFunc(state.Sales, func(a, b domain.Sale) int {
		return cmpString(a.ID, b.ID)
	})
	copy(state.StockLogs, s.stockLogs)
	for _, rep := range s.salesReps {
		state.SalesReps = append(state.SalesReps, rep)
	}
	slices.SortFunc(state.SalesReps, func(a, b domain.SalesRep) int {
		return cmpString(a.ID, b.ID)
	})
	copy(state.Activities, s.activities)
	return state
}

func (s *Store) trimActivitiesLocked() {
	if len(s.activities) <= s.activityCap {
		return
	}
	overflow := len(s.activities) - s.activityCap
	kept := make([]domain.Activity, s.activityCap)
	copy(kept, s.activities[overflow:])
	s.activities = kept
}

func validateProduct(product domain.Product) error {
	if strings.TrimSpace(product.Name) == "" || strings.TrimSpace(product.Category) == "" {
		return store.ErrInvalidArgument
	}
	if product.Quantity < 0 || product.LowStockThreshold < 0 {
		return store.ErrInvalidArgument
	}
	if product.CostPriceKobo < 0 || product.SellingPriceKobo < 0 {
		return store.ErrInvalidArgument
	}
	return nil
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

func maxInt64(a int64, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func cloneSale(src domain.Sale) domain.Sale {
	dup := src
	items := make([]domain.SaleItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}
