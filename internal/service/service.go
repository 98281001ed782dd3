package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"stocksight/backend/internal/cache"
	"stocksight/backend/internal/domain"
	"stocksight/backend/internal/report"
	"stocksight/backend/internal/store"
)

const defaultReportTTL = 60 * time.Second

type actorContextKey struct{}

// WithActor attaches the authenticated actor to the context. Every
// mutation reads it back to attribute activities and ledger entries.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// actorOrOwner falls back to the built-in owner identity when no actor
// made it into the context, so internal callers still produce attributed
// activity entries.
func actorOrOwner(ctx context.Context) domain.Actor {
	if actor, ok := ActorFromContext(ctx); ok && actor.ID != "" {
		return actor
	}
	return domain.OwnerActor
}

type Service struct {
	repo      store.Repository
	reports   cache.ReportCache
	reportTTL time.Duration
}

func New(repo store.Repository, reports cache.ReportCache, reportTTL time.Duration) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if reportTTL <= 0 {
		reportTTL = defaultReportTTL
	}
	return &Service{repo: repo, reports: reports, reportTTL: reportTTL}
}

func (s *Service) ListProducts(ctx context.Context, filter report.ProductFilter) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return report.FilterProducts(products, filter), nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) LowStockProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return report.LowStock(products), nil
}

func (s *Service) AddProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	unit := strings.TrimSpace(req.Unit)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", store.ErrInvalidArgument)
	}
	if category == "" {
		return nil, fmt.Errorf("%w: product category is required", store.ErrInvalidArgument)
	}
	if unit == "" {
		unit = "pcs"
	}
	if req.Quantity < 0 || req.LowStockThreshold < 0 {
		return nil, fmt.Errorf("%w: quantities cannot be negative", store.ErrInvalidArgument)
	}
	if req.CostPriceKobo < 0 || req.SellingPriceKobo < 0 {
		return nil, fmt.Errorf("%w: prices cannot be negative", store.ErrInvalidArgument)
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:              name,
		Category:          category,
		Quantity:          req.Quantity,
		Unit:              unit,
		CostPriceKobo:     req.CostPriceKobo,
		SellingPriceKobo:  req.SellingPriceKobo,
		LowStockThreshold: req.LowStockThreshold,
		Description:       strings.TrimSpace(req.Description),
	})
	if err != nil {
		return nil, err
	}

	actor := actorOrOwner(ctx)
	s.logActivity(ctx, domain.Activity{
		Type:     domain.ActivityTypeStock,
		Message:  fmt.Sprintf("added new product: %s", created.Name),
		UserID:   actor.ID,
		UserName: actor.Name,
	})
	return created, nil
}

// UpdateProduct merges the provided fields into the existing product. It
// stays out of the activity feed and the stock ledger; only explicit stock
// operations and sales write ledger entries.
func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (*domain.Product, error) {
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	product := *existing
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		product.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.CostPriceKobo != nil {
		product.CostPriceKobo = *req.CostPriceKobo
	}
	if req.SellingPriceKobo != nil {
		product.SellingPriceKobo = *req.SellingPriceKobo
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}

	return s.repo.UpdateProduct(ctx, product)
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.DeleteProduct(ctx, id)
}

func (s *Service) AddStock(ctx context.Context, productID string, req domain.StockAddRequest) (*domain.StockLogEntry, error) {
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: stock quantity must be positive", store.ErrInvalidArgument)
	}

	actor := actorOrOwner(ctx)
	entry, err := s.repo.AddStock(ctx, productID, req.Quantity, req.Note, actor)
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, domain.Activity{
		Type:     domain.ActivityTypeStock,
		Message:  fmt.Sprintf("added %d units to %s", entry.Quantity, entry.ProductName),
		UserID:   actor.ID,
		UserName: actor.Name,
	})
	return entry, nil
}

func (s *Service) ListStockLogs(ctx context.Context, productID string, limit int) ([]domain.StockLogEntry, error) {
	return s.repo.ListStockLogs(ctx, productID, limit)
}

func validPaymentMethod(method string) bool {
	switch method {
	case domain.PaymentMethodCash, domain.PaymentMethodTransfer, domain.PaymentMethodPOS, domain.PaymentMethodCredit:
		return true
	}
	return false
}

// RecordSale creates the sale on behalf of the context actor. Sales made
// by the owner are approved immediately; sales made by a rep start
// pending and wait for the owner's review.
func (s *Service) RecordSale(ctx context.Context, req domain.SaleCreateRequest) (*domain.Sale, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: a sale needs at least one item", store.ErrInvalidArgument)
	}
	if !validPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", store.ErrInvalidArgument, req.PaymentMethod)
	}

	actor := actorOrOwner(ctx)
	sale := domain.Sale{
		PaymentMethod: req.PaymentMethod,
		Status:        domain.SaleStatusPending,
	}
	if actor.Role == domain.RoleOwner {
		sale.Status = domain.SaleStatusApproved
	}
	if actor.Role == domain.RoleRep {
		sale.SalesRepID = actor.ID
		sale.SalesRepName = actor.Name
	}
	if req.SalesRepID != "" {
		rep, err := s.repo.GetSalesRep(ctx, req.SalesRepID)
		if err != nil {
			return nil, fmt.Errorf("resolve sales rep: %w", err)
		}
		sale.SalesRepID = rep.ID
		sale.SalesRepName = rep.Name
	}
	for _, item := range req.Items {
		sale.Items = append(sale.Items, domain.SaleItem{
			ProductID:     item.ProductID,
			ProductName:   strings.TrimSpace(item.ProductName),
			Quantity:      item.Quantity,
			UnitPriceKobo: item.UnitPriceKobo,
		})
	}

	created, err := s.repo.RecordSale(ctx, sale)
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, domain.Activity{
		Type:       domain.ActivityTypeSale,
		Message:    "recorded a sale",
		UserID:     actor.ID,
		UserName:   actor.Name,
		AmountKobo: created.TotalAmountKobo,
	})
	return created, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return s.repo.GetSale(ctx, id)
}

func (s *Service) ListSales(ctx context.Context, filter report.SaleFilter, limit int) ([]domain.Sale, error) {
	sales, err := s.repo.ListSales(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	filtered := report.FilterSales(sales, filter, time.Now())
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func (s *Service) ApproveSale(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := s.repo.ApproveSale(ctx, id)
	if err != nil {
		return nil, err
	}

	actor := actorOrOwner(ctx)
	s.logActivity(ctx, domain.Activity{
		Type:       domain.ActivityTypeApproval,
		Message:    fmt.Sprintf("approved sale of ₦%s", formatNaira(sale.TotalAmountKobo)),
		UserID:     actor.ID,
		UserName:   actor.Name,
		AmountKobo: sale.TotalAmountKobo,
	})
	return sale, nil
}

func (s *Service) DisputeSale(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := s.repo.DisputeSale(ctx, id)
	if err != nil {
		return nil, err
	}

	actor := actorOrOwner(ctx)
	s.logActivity(ctx, domain.Activity{
		Type:       domain.ActivityTypeApproval,
		Message:    fmt.Sprintf("disputed sale of ₦%s", formatNaira(sale.TotalAmountKobo)),
		UserID:     actor.ID,
		UserName:   actor.Name,
		AmountKobo: sale.TotalAmountKobo,
	})
	return sale, nil
}

func (s *Service) AddSalesRep(ctx context.Context, req domain.SalesRepCreateRequest) (*domain.SalesRep, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: rep name is required", store.ErrInvalidArgument)
	}
	if err := ValidatePINStrength(req.PIN); err != nil {
		return nil, err
	}
	hash, err := hashPIN(req.PIN)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}

	created, err := s.repo.CreateSalesRep(ctx, domain.SalesRep{
		Name:     name,
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		PINHash:  hash,
		IsActive: true,
	})
	if err != nil {
		return nil, err
	}

	actor := actorOrOwner(ctx)
	s.logActivity(ctx, domain.Activity{
		Type:     domain.ActivityTypeLogin,
		Message:  fmt.Sprintf("added new sales rep: %s", created.Name),
		UserID:   actor.ID,
		UserName: actor.Name,
	})
	return created, nil
}

func (s *Service) GetSalesRep(ctx context.Context, id string) (*domain.SalesRep, error) {
	return s.repo.GetSalesRep(ctx, id)
}

func (s *Service) ListSalesReps(ctx context.Context) ([]domain.SalesRep, error) {
	return s.repo.ListSalesReps(ctx)
}

// UpdateSalesRep, like UpdateProduct, is silent: edits do not show up in
// the activity feed.
func (s *Service) UpdateSalesRep(ctx context.Context, id string, req domain.SalesRepUpdateRequest) (*domain.SalesRep, error) {
	existing, err := s.repo.GetSalesRep(ctx, id)
	if err != nil {
		return nil, err
	}

	rep := *existing
	if req.Name != nil {
		rep.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		rep.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		rep.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.IsActive != nil {
		rep.IsActive = *req.IsActive
	}
	if req.PIN != nil {
		if err := ValidatePINStrength(*req.PIN); err != nil {
			return nil, err
		}
		hash, err := hashPIN(*req.PIN)
		if err != nil {
			return nil, fmt.Errorf("hash pin: %w", err)
		}
		rep.PINHash = hash
	}

	return s.repo.UpdateSalesRep(ctx, rep)
}

func (s *Service) DeleteSalesRep(ctx context.Context, id string) error {
	return s.repo.DeleteSalesRep(ctx, id)
}

// RecordLogin appends a login activity for the context actor. Called after
// a successful rep PIN login.
func (s *Service) RecordLogin(ctx context.Context) {
	actor := actorOrOwner(ctx)
	s.logActivity(ctx, domain.Activity{
		Type:     domain.ActivityTypeLogin,
		Message:  "logged in",
		UserID:   actor.ID,
		UserName: actor.Name,
	})
}

func (s *Service) ListActivities(ctx context.Context, limit int) ([]domain.Activity, error) {
	return s.repo.ListActivities(ctx, limit)
}

func (s *Service) DailySeries(ctx context.Context) (*domain.DailySeriesReport, error) {
	revision, err := s.repo.Revision(ctx)
	if err != nil {
		return nil, fmt.Errorf("read revision: %w", err)
	}
	key := fmt.Sprintf("reports:daily-series:rev%d", revision)

	if payload, found, err := s.reports.Get(ctx, key); err != nil {
		log.Printf("[service] WARN: report cache get failed: %v", err)
	} else if found {
		var cached domain.DailySeriesReport
		if err := json.Unmarshal(payload, &cached); err == nil {
			return &cached, nil
		}
		log.Printf("[service] WARN: discarding malformed cached report for %s", key)
	}

	sales, err := s.repo.ListSales(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	series := report.DailySeries(sales, products, time.Now())

	if payload, err := json.Marshal(series); err == nil {
		if err := s.reports.Set(ctx, key, payload, s.reportTTL); err != nil {
			log.Printf("[service] WARN: report cache set failed: %v", err)
		}
	}
	return &series, nil
}

func (s *Service) CategoryValuation(ctx context.Context) ([]domain.CategoryValuation, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return report.CategoryValuation(products), nil
}

func (s *Service) WeekOverWeek(ctx context.Context) (*domain.WeekOverWeekReport, error) {
	sales, err := s.repo.ListSales(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	result := report.WeekOverWeek(sales, time.Now())
	return &result, nil
}

func (s *Service) Reconcile(ctx context.Context, cashReceivedKobo int64) (*domain.ReconciliationReport, error) {
	if cashReceivedKobo < 0 {
		return nil, fmt.Errorf("%w: cash received cannot be negative", store.ErrInvalidArgument)
	}
	sales, err := s.repo.ListSales(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	result := report.Reconcile(sales, cashReceivedKobo, time.Now())
	return &result, nil
}

// logActivity records the feed entry and only warns on failure; losing an
// activity line must never fail the operation that produced it.
func (s *Service) logActivity(ctx context.Context, activity domain.Activity) {
	if _, err := s.repo.AddActivity(ctx, activity); err != nil {
		log.Printf("[activity] WARN: failed to record %q: %v", activity.Message, err)
	}
}

// formatNaira renders kobo as naira with comma thousands grouping, the
// way amounts appear in the activity feed.
func formatNaira(kobo int64) string {
	negative := kobo < 0
	if negative {
		kobo = -kobo
	}
	naira := kobo / 100
	remainder := kobo % 100

	digits := fmt.Sprintf("%d", naira)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String()
	if remainder != 0 {
		out = fmt.Sprintf("%s.%02d", out, remainder)
	}
	if negative {
		out = "-" + out
	}
	return out
}
