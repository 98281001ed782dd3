package store

import (
	"context"
	"errors"

	"stocksight/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSaleFinalized     = errors.New("sale already finalized")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AddStock(ctx context.Context, productID string, quantity int, note string, actor domain.Actor) (*domain.StockLogEntry, error)
	ListStockLogs(ctx context.Context, productID string, limit int) ([]domain.StockLogEntry, error)
	RecordSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, limit int) ([]domain.Sale, error)
	ApproveSale(ctx context.Context, id string) (*domain.Sale, error)
	DisputeSale(ctx context.Context, id string) (*domain.Sale, error)
	CreateSalesRep(ctx context.Context, rep domain.SalesRep) (*domain.SalesRep, error)
	GetSalesRep(ctx context.Context, id string) (*domain.SalesRep, error)
	ListSalesReps(ctx context.Context) ([]domain.SalesRep, error)
	UpdateSalesRep(ctx context.Context, rep domain.SalesRep) (*domain.SalesRep, error)
	DeleteSalesRep(ctx context.Context, id string) error
	AddActivity(ctx context.Context, activity domain.Activity) (*domain.Activity, error)
	ListActivities(ctx context.Context, limit int) ([]domain.Activity, error)
	Revision(ctx context.Context) (uint64, error)
}
