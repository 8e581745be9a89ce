package service

import (
	"context"
	"errors"
	"fmt"

	"depot-backend/internal/model"
	"depot-backend/internal/repository"
	ws "depot-backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductRequest struct {
	Name          string  `json:"name" binding:"required"`
	Type          string  `json:"type"`
	PurchasePrice float64 `json:"purchase_price" binding:"min=0"`
	SalePrice     float64 `json:"sale_price" binding:"min=0"`
	Stock         int     `json:"stock"`
	AlertLevel    int     `json:"alert_level"`
}

type UpdateProductRequest struct {
	Name          *string  `json:"name"`
	Type          *string  `json:"type"`
	PurchasePrice *float64 `json:"purchase_price"`
	SalePrice     *float64 `json:"sale_price"`
	AlertLevel    *int     `json:"alert_level"`
}

type CreateStockEntryRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	TotalCost float64 `json:"total_cost" binding:"min=0"`
	Supplier  string  `json:"supplier" binding:"required"`
}

type UpdateStockEntryRequest struct {
	Quantity  *int     `json:"quantity"`
	TotalCost *float64 `json:"total_cost"`
	Supplier  *string  `json:"supplier"`
}

type CreateSaleRequest struct {
	ProductID     string `json:"product_id" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,gt=0"`
	Client        string `json:"client" binding:"required"`
	PaymentStatus string `json:"payment_status" binding:"omitempty,oneof=unpaid paid"`
}

type UpdateSaleRequest struct {
	ProductID     *string `json:"product_id"`
	Quantity      *int    `json:"quantity"`
	Client        *string `json:"client"`
	PaymentStatus *string `json:"payment_status" binding:"omitempty,oneof=unpaid paid"`
}

// InventoryService owns the catalog and the stock/sale ledger: product CRUD,
// stock entry creation with its atomic stock increment, and sale totals
// snapshotted from the product's current sale price.
type InventoryService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateStockEntry(ctx context.Context, req CreateStockEntryRequest) (*model.StockEntry, error)
	GetStockEntry(ctx context.Context, id string) (*model.StockEntry, error)
	ListStockEntries(ctx context.Context, page, limit int) ([]model.StockEntry, int64, error)
	UpdateStockEntry(ctx context.Context, id string, req UpdateStockEntryRequest) (*model.StockEntry, error)
	DeleteStockEntry(ctx context.Context, id string) error

	CreateSale(ctx context.Context, req CreateSaleRequest) (*model.Sale, error)
	GetSale(ctx context.Context, id string) (*model.Sale, error)
	ListSales(ctx context.Context, page, limit int) ([]model.Sale, int64, error)
	UpdateSale(ctx context.Context, id string, req UpdateSaleRequest) (*model.Sale, error)
	ConfirmSale(ctx context.Context, id string) (*model.Sale, error)
	DeleteSale(ctx context.Context, id string) error
}

type inventoryService struct {
	productRepo repository.ProductRepository
	entryRepo   repository.StockEntryRepository
	saleRepo    repository.SaleRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	entryRepo repository.StockEntryRepository,
	saleRepo repository.SaleRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) InventoryService {
	return &inventoryService{
		productRepo: productRepo,
		entryRepo:   entryRepo,
		saleRepo:    saleRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// saleTotal computes quantity x unit price without float accumulation drift.
func saleTotal(quantity int, unitPrice float64) float64 {
	total := decimal.NewFromInt(int64(quantity)).Mul(decimal.NewFromFloat(unitPrice))
	return total.InexactFloat64()
}

// --- Products ---

func (s *inventoryService) CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error) {
	if req.Stock < 0 {
		return nil, ErrNegativeStock
	}

	if _, err := s.productRepo.FindByName(ctx, req.Name); err == nil {
		return nil, ErrProductNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	product := &model.Product{
		Name:          req.Name,
		Type:          req.Type,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		Stock:         req.Stock,
		AlertLevel:    req.AlertLevel,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *inventoryService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return product, nil
}

func (s *inventoryService) ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	return s.productRepo.List(ctx, page, limit, search)
}

func (s *inventoryService) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*model.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != product.Name {
		if _, err := s.productRepo.FindByName(ctx, *req.Name); err == nil {
			return nil, ErrProductNameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("database error: %w", err)
		}
		product.Name = *req.Name
	}
	if req.Type != nil {
		product.Type = *req.Type
	}
	if req.PurchasePrice != nil {
		product.PurchasePrice = *req.PurchasePrice
	}
	if req.SalePrice != nil {
		product.SalePrice = *req.SalePrice
	}
	if req.AlertLevel != nil {
		product.AlertLevel = *req.AlertLevel
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// DeleteProduct removes the product. Ledger rows referencing it are left in
// place: there is no cascade guard against orphans.
func (s *inventoryService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, product.ID)
}

// --- Stock entries ---

// CreateStockEntry inserts the entry and increments the product's stock as a
// single transactional unit. The increment itself is one SQL expression so
// concurrent entries against the same product never lose updates.
func (s *inventoryService) CreateStockEntry(ctx context.Context, req CreateStockEntryRequest) (*model.StockEntry, error) {
	product, err := s.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	entry := &model.StockEntry{
		ProductID: product.ID,
		Quantity:  req.Quantity,
		TotalCost: req.TotalCost,
		Supplier:  req.Supplier,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.entryRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to create stock entry: %w", err)
		}
		if err := s.productRepo.IncrementStock(txCtx, product.ID, req.Quantity); err != nil {
			return fmt.Errorf("failed to increment stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(ws.EventStockUpdated, map[string]interface{}{
		"product_id": product.ID.String(),
		"quantity":   req.Quantity,
	})

	return entry, nil
}

func (s *inventoryService) GetStockEntry(ctx context.Context, id string) (*model.StockEntry, error) {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrEntryNotFound
	}

	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return entry, nil
}

func (s *inventoryService) ListStockEntries(ctx context.Context, page, limit int) ([]model.StockEntry, int64, error) {
	return s.entryRepo.List(ctx, page, limit)
}

// UpdateStockEntry is an administrative correction of the recorded fact. It
// does not re-adjust the product's stock counter.
func (s *inventoryService) UpdateStockEntry(ctx context.Context, id string, req UpdateStockEntryRequest) (*model.StockEntry, error) {
	entry, err := s.GetStockEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		entry.Quantity = *req.Quantity
	}
	if req.TotalCost != nil {
		entry.TotalCost = *req.TotalCost
	}
	if req.Supplier != nil {
		entry.Supplier = *req.Supplier
	}

	if err := s.entryRepo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update stock entry: %w", err)
	}
	return entry, nil
}

// DeleteStockEntry removes the record without reversing the stock increment
// it previously applied.
func (s *inventoryService) DeleteStockEntry(ctx context.Context, id string) error {
	entry, err := s.GetStockEntry(ctx, id)
	if err != nil {
		return err
	}
	return s.entryRepo.Delete(ctx, entry.ID)
}

// --- Sales ---

// CreateSale snapshots the total from the product's current sale price. The
// product's stock counter is not decremented here: in the current design
// inventory only moves through stock entries.
func (s *inventoryService) CreateSale(ctx context.Context, req CreateSaleRequest) (*model.Sale, error) {
	product, err := s.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	status := req.PaymentStatus
	if status == "" {
		status = model.PaymentStatusUnpaid
	}

	sale := &model.Sale{
		ProductID:     product.ID,
		Quantity:      req.Quantity,
		TotalPrice:    saleTotal(req.Quantity, product.SalePrice),
		Client:        req.Client,
		PaymentStatus: status,
	}

	if err := s.saleRepo.Create(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	if product.Stock <= product.AlertLevel {
		s.hub.Publish(ws.EventLowStock, map[string]interface{}{
			"product_id":  product.ID.String(),
			"stock":       product.Stock,
			"alert_level": product.AlertLevel,
		})
	}

	sale.Product = *product
	return sale, nil
}

func (s *inventoryService) GetSale(ctx context.Context, id string) (*model.Sale, error) {
	saleID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSaleNotFound
	}

	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return sale, nil
}

func (s *inventoryService) ListSales(ctx context.Context, page, limit int) ([]model.Sale, int64, error) {
	return s.saleRepo.List(ctx, page, limit)
}

// UpdateSale applies a partial edit. When quantity or product changes, the
// total is recomputed against the (possibly new) product's current sale price.
func (s *inventoryService) UpdateSale(ctx context.Context, id string, req UpdateSaleRequest) (*model.Sale, error) {
	sale, err := s.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil || req.ProductID != nil {
		productID := sale.ProductID.String()
		if req.ProductID != nil {
			productID = *req.ProductID
		}

		product, err := s.GetProduct(ctx, productID)
		if err != nil {
			return nil, ErrInvalidProduct
		}

		quantity := sale.Quantity
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		sale.ProductID = product.ID
		sale.Product = *product
		sale.Quantity = quantity
		sale.TotalPrice = saleTotal(quantity, product.SalePrice)
	}

	if req.Client != nil {
		sale.Client = *req.Client
	}
	if req.PaymentStatus != nil {
		sale.PaymentStatus = *req.PaymentStatus
	}

	if err := s.saleRepo.Update(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to update sale: %w", err)
	}
	return sale, nil
}

// ConfirmSale flips payment status from unpaid to paid exactly once.
func (s *inventoryService) ConfirmSale(ctx context.Context, id string) (*model.Sale, error) {
	sale, err := s.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}

	if sale.PaymentStatus == model.PaymentStatusPaid {
		return nil, ErrSaleAlreadyPaid
	}

	sale.PaymentStatus = model.PaymentStatusPaid
	if err := s.saleRepo.Update(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to confirm sale: %w", err)
	}

	s.hub.Publish(ws.EventSaleConfirmed, map[string]interface{}{
		"sale_id":     sale.ID.String(),
		"product_id":  sale.ProductID.String(),
		"total_price": sale.TotalPrice,
	})

	return sale, nil
}

// DeleteSale removes the record. The stock counter is untouched because sale
// creation never moved it.
func (s *inventoryService) DeleteSale(ctx context.Context, id string) error {
	sale, err := s.GetSale(ctx, id)
	if err != nil {
		return err
	}
	return s.saleRepo.Delete(ctx, sale.ID)
}
