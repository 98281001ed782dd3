package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"stocksight/backend/internal/domain"
	"stocksight/backend/internal/snapshot"
	"stocksight/backend/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), snapshot.Noop{}, 0)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func seedProduct(t *testing.T, s *Store, name string, quantity int, costKobo int64, sellKobo int64) domain.Product {
	t.Helper()
	created, err := s.CreateProduct(context.Background(), domain.Product{
		Name:              name,
		Category:          "Beverages",
		Quantity:          quantity,
		Unit:              "pcs",
		CostPriceKobo:     costKobo,
		SellingPriceKobo:  sellKobo,
		LowStockThreshold: 5,
	})
	if err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return *created
}

func seedRep(t *testing.T, s *Store, name string) domain.SalesRep {
	t.Helper()
	created, err := s.CreateSalesRep(context.Background(), domain.SalesRep{
		Name:     name,
		Email:    "rep@example.com",
		PINHash:  "$2a$10$fakefakefakefakefakefake",
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create rep %s: %v", name, err)
	}
	return *created
}

func TestRecordSaleDecrementsStockAndLogsLedger(t *testing.T) {
	s := newTestStore(t)
	product := seedProduct(t, s, "Coke 50cl", 10, 15000, 20000)

	sale, err := s.RecordSale(context.Background(), domain.Sale{
		Items: []domain.SaleItem{
			{ProductID: product.ID, Quantity: 3, UnitPriceKobo: 20000},
		},
		PaymentMethod: domain.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if sale.TotalAmountKobo != 60000 {
		t.Fatalf("expected total 60000, got %d", sale.TotalAmountKobo)
	}
	if sale.Status != domain.SaleStatusPending {
		t.Fatalf("expected pending status, got %s", sale.Status)
	}
	if sale.Items[0].ProductName != "Coke 50cl" {
		t.Fatalf("expected snapshotted product name, got %q", sale.Items[0].ProductName)
	}

	after, err := s.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != 7 {
		t.Fatalf("expected quantity 7 after sale, got %d", after.Quantity)
	}

	logs, err := s.ListStockLogs(context.Background(), product.ID, 0)
	if err != nil {
		t.Fatalf("list stock logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(logs))
	}
	entry := logs[0]
	if entry.Type != domain.StockLogTypeSale {
		t.Fatalf("expected sale ledger type, got %s", entry.Type)
	}
	if entry.PreviousQuantity != 10 || entry.NewQuantity != 7 {
		t.Fatalf("unexpected ledger quantities: prev=%d new=%d", entry.PreviousQuantity, entry.NewQuantity)
	}
}

func TestRecordSaleRejectsOversell(t *testing.T) {
	s := newTestStore(t)
	product := seedProduct(t, s, "Fanta 50cl", 2, 15000, 20000)

	_, err := s.RecordSale(context.Background(), domain.Sale{
		Items: []domain.SaleItem{
			{ProductID: product.ID, Quantity: 3, UnitPriceKobo: 20000},
		},
		PaymentMethod: domain.PaymentMethodCash,
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	after, err := s.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != 2 {
		t.Fatalf("rejected sale must not change stock, got quantity %d", after.Quantity)
	}
	logs, err := s.ListStockLogs(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("list stock logs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("rejected sale must not append ledger entries, got %d", len(logs))
	}
}

func TestRecordSaleRejectsPartialOversellAtomically(t *testing.T) {
	s := newTestStore(t)
	plenty := seedProduct(t, s, "Rice 5kg", 50, 400000, 550000)
	scarce := seedProduct(t, s, "Palm Oil 1L", 1, 120000, 160000)

	_, err := s.RecordSale(context.Background(), domain.Sale{
		Items: []domain.SaleItem{
			{ProductID: plenty.ID, Quantity: 2, UnitPriceKobo: 550000},
			{ProductID: scarce.ID, Quantity: 4, UnitPriceKobo: 160000},
		},
		PaymentMethod: domain.PaymentMethodTransfer,
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	after, err := s.GetProduct(context.Background(), plenty.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != 50 {
		t.Fatalf("rejected sale must leave all lines untouched, got quantity %d", after.Quantity)
	}
}

func TestRecordSaleRejectsDuplicateLineOversell(t *testing.T) {
	s := newTestStore(t)
	product := seedProduct(t, s, "Bottled Water", 8, 5000, 8000)

	// Each line fits on its own but together they exceed stock.
	_, err := s.RecordSale(context.Background(), domain.Sale{
		Items: []domain.SaleItem{
			{ProductID: product.ID, Quantity: 5, UnitPriceKobo: 8000},
			{ProductID: product.ID, Quantity: 5, UnitPriceKobo: 8000},
		},
		PaymentMethod: domain.PaymentMethodCash,
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock for aggregated oversell, got %v", err)
	}

	after, err := s.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != 8 {
		t.Fatalf("rejected sale must not change stock, got quantity %d", after.Quantity)
	}

	// Duplicate lines that fit in aggregate still sell, and the ledger
	// entries chain their quantity snapshots.
	sale, err := s.RecordSale(context.Background(), domain.Sale{
		Items: []domain.SaleItem{
			{ProductID: product.ID, Quantity: 5, UnitPriceKobo: 8000},
			{ProductID: product.ID, Quantity: 3, UnitPriceKobo: 8000},
		},
		PaymentMethod: domain.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if sale.TotalAmountKobo != 64000 {
		t.Fatalf("expected total 64000, got %d", sale.TotalAmountKobo)
	}
	after, err = s.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != 0 {
		t.Fatalf("expected quantity 0 after both lines, got %d", after.Quantity)
	}
	logs, err := s.ListStockLogs(context.Background(), product.ID, 0)
	if err != nil {
		t.Fatalf("list stock logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected a ledger entry per line, got %d", len(logs))
	}
	if logs[1].PreviousQuantity != 8 || logs[1].NewQuantity != 3 {
		t.Fatalf("unexpected first line snapshot: prev=%d new=%d", logs[1].PreviousQuantity, logs[1].NewQuantity)
	}
	if logs[0].PreviousQuantity != 3 || logs[0].NewQuantity != 0 {
		t.Fatalf("unexpected second line snapshot: prev=%d new=%d", logs[0].PreviousQuantity, logs[0].NewQuantity)
	}
}

func TestRecordSaleWithDeletedProductKeepsName(t *testing.T) {
	s := newTestStore(t)
	product := seedProduct(t, s, "Ghost Item", 5, 10000, 15000)
	if err := s.DeleteProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	sale, err := s.RecordSale(context.Background(), domain.Sale{
		Items: []domain.SaleItem{
			{ProductID: product.ID, ProductName: "Ghost Item", Quantity: 2, UnitPriceKobo: 15000},
		},
		PaymentMethod: domain.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("record sale against deleted product: %v", err)
	}
	if sale.Items[0].ProductName != "Ghost Item" {
		t.Fatalf("expected caller-supplied name to survive, got %q", sale.Items[0].ProductName)
	}
	if sale.TotalAmountKobo != 30000 {
		t.Fatalf("expected total 30000, got %d", sale.TotalAmountKobo)
	}
	logs, err := s.ListStockLogs(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("list stock logs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("sale of deleted product must not touch the ledger, got %d entries", len(logs))
	}
}

func TestRecordSaleUpdatesRepTotals(t *testing.T) {
	s := newTestStore(t)
	product := seedProduct(t, s, "Indomie Carton", 20, 700000, 850000)
	rep := seedRep(t, s, "Ada")

	_, err := s.RecordSale(context.Background(), domain.Sale{
		Items: []domain.SaleItem{
			{ProductID: product.ID, Quantity: 2, UnitPriceKobo: 850000},
		},
		PaymentMethod: domain.PaymentMethodPOS,
		SalesRepID:    rep.ID,
		SalesRepName:  rep.Name,
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	after, err := s.GetSalesRep(context.Background(), rep.ID)
	if err != nil {
		t.Fatalf("get rep: %v", err)
	}
	if after.TodaySalesKobo != 1700000 || after.TotalSalesKobo != 1700000 {
		t.Fatalf("unexpected rep totals: today=%d total=%d", after.TodaySalesKobo, after.TotalSalesKobo)
	}
}

func TestApproveSaleOnlyFromPending(t *testing.T) {
	s := newTestStore(t)
	product := seedProduct(t, s, "Milo Tin", 10, 180000, 220000)

	sale, err := s.RecordSale(context.Background(), domain.Sale{
		Items:         []domain.SaleItem{{ProductID: product.ID, Quantity: 1, UnitPriceKobo: 220000}},
		PaymentMethod: domain.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	approved, err := s.ApproveSale(context.Background(), sale.ID)
	if err != nil {
		t.Fatalf("approve sale: %v", err)
	}
	if approved.Status != domain.SaleStatusApproved {
		t.Fatalf("expected approved status, got %s", approved.Status)
	}

	if _, err := s.ApproveSale(context.Background(), sale.ID); !errors.Is(err, store.ErrSaleFinalized) {
		t.Fatalf("expected ErrSaleFinalized on second approve, got %v", err)
	}
	if _, err := s.DisputeSale(context.Background(), sale.ID); !errors.Is(err, store.ErrSaleFinalized) {
		t.Fatalf("expected ErrSaleFinalized disputing an approved sale, got %v", err)
	}
}

func TestDisputeSaleRestocksAndClampsRepTotals(t *testing.T) {
	s := newTestStore(t)
	product := seedProduct(t, s, "Peak Milk", 10, 30000, 40000)
	rep := seedRep(t, s, "Chidi")

	sale, err := s.RecordSale(context.Background(), domain.Sale{
		Items:         []domain.SaleItem{{ProductID: product.ID, Quantity: 4, UnitPriceKobo: 40000}},
		PaymentMethod: domain.PaymentMethodCash,
		SalesRepID:    rep.ID,
		SalesRepName:  rep.Name,
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	// Lower the rep's counters below the sale amount so the clamp is
	// observable.
	current, err := s.GetSalesRep(context.Background(), rep.ID)
	if err != nil {
		t.Fatalf("get rep: %v", err)
	}
	current.TodaySalesKobo = 50000
	current.TotalSalesKobo = 50000
	if _, err := s.UpdateSalesRep(context.Background(), *current); err != nil {
		t.Fatalf("update rep: %v", err)
	}

	disputed, err := s.DisputeSale(context.Background(), sale.ID)
	if err != nil {
		t.Fatalf("dispute sale: %v", err)
	}
	if disputed.Status != domain.SaleStatusDisputed {
		t.Fatalf("expected disputed status, got %s", disputed.Status)
	}

	after, err := s.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != 10 {
		t.Fatalf("expected stock restored to 10, got %d", after.Quantity)
	}

	repAfter, err := s.GetSalesRep(context.Background(), rep.ID)
	if err != nil {
		t.Fatalf("get rep: %v", err)
	}
	if repAfter.TodaySalesKobo != 0 || repAfter.TotalSalesKobo != 0 {
		t.Fatalf("expected rep totals clamped at zero, got today=%d total=%d", repAfter.TodaySalesKobo, repAfter.TotalSalesKobo)
	}

	logs, err := s.ListStockLogs(context.Background(), product.ID, 0)
	if err != nil {
		t.Fatalf("list stock logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected sale + adjustment ledger entries, got %d", len(logs))
	}
	if logs[0].Type != domain.StockLogTypeAdjustment {
		t.Fatalf("expected newest entry to be adjustment, got %s", logs[0].Type)
	}

	if _, err := s.DisputeSale(context.Background(), sale.ID); !errors.Is(err, store.ErrSaleFinalized) {
		t.Fatalf("expected ErrSaleFinalized on second dispute, got %v", err)
	}
}

func TestLedgerSurvivesProductDeletion(t *testing.T) {
	s := newTestStore(t)
	product := seedProduct(t, s, "Garri 1kg", 5, 50000, 70000)

	if _, err := s.AddStock(context.Background(), product.ID, 10, "restock", domain.OwnerActor); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if err := s.DeleteProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	logs, err := s.ListStockLogs(context.Background(), product.ID, 0)
	if err != nil {
		t.Fatalf("list stock logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("ledger entries must outlive the product, got %d", len(logs))
	}
	if logs[0].ProductName != "Garri 1kg" {
		t.Fatalf("ledger entry must keep its snapshotted name, got %q", logs[0].ProductName)
	}
}

func TestAddStockValidation(t *testing.T) {
	s := newTestStore(t)
	product := seedProduct(t, s, "Sugar 1kg", 3, 60000, 80000)

	if _, err := s.AddStock(context.Background(), product.ID, 0, "", domain.OwnerActor); !errors.Is(err, store.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for zero quantity, got %v", err)
	}
	if _, err := s.AddStock(context.Background(), "prod-missing", 5, "", domain.OwnerActor); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing product, got %v", err)
	}

	entry, err := s.AddStock(context.Background(), product.ID, 7, "weekly restock", domain.OwnerActor)
	if err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if entry.PreviousQuantity != 3 || entry.NewQuantity != 10 {
		t.Fatalf("unexpected ledger quantities: prev=%d new=%d", entry.PreviousQuantity, entry.NewQuantity)
	}
}

func TestUpdateMissingRowsReturnNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpdateProduct(context.Background(), domain.Product{
		ID:       "prod-missing",
		Name:     "Nope",
		Category: "None",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing product, got %v", err)
	}

	_, err = s.UpdateSalesRep(context.Background(), domain.SalesRep{ID: "rep-missing", Name: "Nobody"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing rep, got %v", err)
	}

	if err := s.DeleteProduct(context.Background(), "prod-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting missing product, got %v", err)
	}
	if err := s.DeleteSalesRep(context.Background(), "rep-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting missing rep, got %v", err)
	}
}

func TestActivityFeedCapDropsOldest(t *testing.T) {
	s, err := Open(context.Background(), snapshot.Noop{}, 3)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := s.AddActivity(context.Background(), domain.Activity{
			Type:      domain.ActivityTypeStock,
			Message:   "event " + string(rune('a'+i)),
			UserID:    "owner",
			UserName:  "Owner",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("add activity %d: %v", i, err)
		}
	}

	activities, err := s.ListActivities(context.Background(), 0)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != 3 {
		t.Fatalf("expected capped feed of 3, got %d", len(activities))
	}
	if activities[0].Message != "event e" {
		t.Fatalf("expected newest first, got %q", activities[0].Message)
	}
	if activities[2].Message != "event c" {
		t.Fatalf("expected oldest surviving entry to be event c, got %q", activities[2].Message)
	}
}

func TestRevisionAdvancesOnMutation(t *testing.T) {
	s := newTestStore(t)

	before, err := s.Revision(context.Background())
	if err != nil {
		t.Fatalf("revision: %v", err)
	}
	seedProduct(t, s, "Bread", 4, 50000, 65000)
	after, err := s.Revision(context.Background())
	if err != nil {
		t.Fatalf("revision: %v", err)
	}
	if after != before+1 {
		t.Fatalf("expected revision %d, got %d", before+1, after)
	}
}

func TestSnapshotRoundTripThroughFilePersister(t *testing.T) {
	ctx := context.Background()
	persister := snapshot.NewFile(t.TempDir() + "/state.json")

	s, err := Open(ctx, persister, 0)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	product := seedProduct(t, s, "Omo Sachet", 30, 10000, 15000)
	rep := seedRep(t, s, "Bola")
	sale, err := s.RecordSale(ctx, domain.Sale{
		Items:         []domain.SaleItem{{ProductID: product.ID, Quantity: 5, UnitPriceKobo: 15000}},
		PaymentMethod: domain.PaymentMethodCash,
		SalesRepID:    rep.ID,
		SalesRepName:  rep.Name,
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	reopened, err := Open(ctx, persister, 0)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	gotProduct, err := reopened.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product after reopen: %v", err)
	}
	if gotProduct.Quantity != 25 {
		t.Fatalf("expected persisted quantity 25, got %d", gotProduct.Quantity)
	}
	gotSale, err := reopened.GetSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("get sale after reopen: %v", err)
	}
	if gotSale.TotalAmountKobo != sale.TotalAmountKobo {
		t.Fatalf("expected persisted total %d, got %d", sale.TotalAmountKobo, gotSale.TotalAmountKobo)
	}
	gotRep, err := reopened.GetSalesRep(ctx, rep.ID)
	if err != nil {
		t.Fatalf("get rep after reopen: %v", err)
	}
	if gotRep.TotalSalesKobo != 75000 {
		t.Fatalf("expected persisted rep total 75000, got %d", gotRep.TotalSalesKobo)
	}
}
