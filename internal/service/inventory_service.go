package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-stockwise/internal/model"
	"go-stockwise/internal/store"
	"go-stockwise/pkg/validator"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrDuplicateCode     = errors.New("product code already exists")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateCategory = errors.New("category name already exists")
)

type InventoryService interface {
	CreateProduct(req *model.Product) (*model.Product, error)
	UpdateProduct(id string, patch *model.ProductPatch) (*model.Product, error)
	DeleteProduct(id string) error
	GetProduct(id string) (*model.Product, error)
	ListProducts(criteria store.Criteria) ([]*model.Product, error)
	LowStock() ([]*model.Product, error)

	CreateCategory(req *model.Category) (*model.Category, error)
	UpdateCategory(id string, patch *model.CategoryPatch) (*model.Category, error)
	DeleteCategory(id string) error
	ListCategories() ([]*model.Category, error)

	RecordMovement(req *MovementRequest) (*model.StockLogEntry, error)
	ListMovements(productID string) ([]*model.StockLogEntry, error)
}

// MovementRequest records one stock movement. Quantity is always positive;
// the transaction type determines the direction.
type MovementRequest struct {
	ProductID       string                `json:"product_id" validate:"required"`
	TransactionType model.TransactionType `json:"transaction_type" validate:"required,oneof=in out adjustment"`
	Quantity        int                   `json:"quantity" validate:"required,gt=0"`
	Reference       string                `json:"reference"`
	Reason          string                `json:"reason" validate:"required"`
	SupplierID      *string               `json:"supplier_id"`
	Notes           string                `json:"notes"`
	UserID          string                `json:"user_id"`
}

type inventoryService struct {
	store *store.Store
}

func NewInventoryService(st *store.Store) InventoryService {
	return &inventoryService{store: st}
}

func validationError(errs []*validator.ErrorResponse) error {
	firstErr := errs[0]
	return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
}

func (s *inventoryService) productByCode(code string) (*model.Product, error) {
	records, err := s.store.GetAll(store.TableProducts)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if p, ok := rec.(*model.Product); ok && p.ProductCode == code {
			return p, nil
		}
	}
	return nil, nil
}

func (s *inventoryService) CreateProduct(req *model.Product) (*model.Product, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	existing, err := s.productByCode(req.ProductCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateCode
	}

	if req.Status == "" {
		req.Status = model.StatusActive
	}

	if _, err := s.store.Insert(store.TableProducts, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *inventoryService) UpdateProduct(id string, patch *model.ProductPatch) (*model.Product, error) {
	if errs := validator.ValidateStruct(patch); len(errs) > 0 {
		return nil, validationError(errs)
	}

	if patch.ProductCode != nil {
		existing, err := s.productByCode(*patch.ProductCode)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, ErrDuplicateCode
		}
	}

	ok, err := s.store.Update(store.TableProducts, id, patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProductNotFound
	}
	return s.GetProduct(id)
}

func (s *inventoryService) DeleteProduct(id string) error {
	ok, err := s.store.Delete(store.TableProducts, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}
	return nil
}

func (s *inventoryService) GetProduct(id string) (*model.Product, error) {
	rec, err := s.store.GetByID(store.TableProducts, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return rec.(*model.Product), nil
}

func (s *inventoryService) ListProducts(criteria store.Criteria) ([]*model.Product, error) {
	records, err := s.store.Find(store.TableProducts, criteria)
	if err != nil {
		return nil, err
	}
	products := make([]*model.Product, 0, len(records))
	for _, rec := range records {
		products = append(products, rec.(*model.Product))
	}
	return products, nil
}

// LowStock lists active products at or below their minimum.
func (s *inventoryService) LowStock() ([]*model.Product, error) {
	products, err := s.ListProducts(nil)
	if err != nil {
		return nil, err
	}
	low := make([]*model.Product, 0)
	for _, p := range products {
		if p.Status == model.StatusActive && p.CurrentStock <= p.MinimumStock {
			low = append(low, p)
		}
	}
	return low, nil
}

func (s *inventoryService) categoryByName(name string) (*model.Category, error) {
	records, err := s.store.GetAll(store.TableCategories)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if c, ok := rec.(*model.Category); ok && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, nil
}

func (s *inventoryService) CreateCategory(req *model.Category) (*model.Category, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	existing, err := s.categoryByName(req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateCategory
	}

	if _, err := s.store.Insert(store.TableCategories, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *inventoryService) UpdateCategory(id string, patch *model.CategoryPatch) (*model.Category, error) {
	if patch.Name != nil {
		existing, err := s.categoryByName(*patch.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, ErrDuplicateCategory
		}
	}

	ok, err := s.store.Update(store.TableCategories, id, patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCategoryNotFound
	}

	rec, err := s.store.GetByID(store.TableCategories, id)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.(*model.Category), nil
}

func (s *inventoryService) DeleteCategory(id string) error {
	ok, err := s.store.Delete(store.TableCategories, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *inventoryService) ListCategories() ([]*model.Category, error) {
	records, err := s.store.GetAll(store.TableCategories)
	if err != nil {
		return nil, err
	}
	categories := make([]*model.Category, 0, len(records))
	for _, rec := range records {
		categories = append(categories, rec.(*model.Category))
	}
	return categories, nil
}

// generateReference builds a human-readable code from the movement type and
// the tail of the current unix-millisecond clock, e.g. "IN-483920".
func generateReference(t model.TransactionType) string {
	prefix := strings.ToUpper(string(t))
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	millis := fmt.Sprintf("%d", time.Now().UnixMilli())
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return fmt.Sprintf("%s-%s", prefix, millis)
}

// RecordMovement writes the ledger entry and then patches the product's
// current stock. The two writes are not atomic; the ledger goes first so a
// failure never leaves an unexplained stock level. An "out" movement may
// drive stock negative; an "adjustment" records the event without moving
// stock.
func (s *inventoryService) RecordMovement(req *MovementRequest) (*model.StockLogEntry, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	product, err := s.GetProduct(req.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	previous := product.CurrentStock
	newStock := previous
	switch req.TransactionType {
	case model.TxIn:
		newStock = previous + req.Quantity
	case model.TxOut:
		newStock = previous - req.Quantity
	}

	reference := req.Reference
	if reference == "" {
		reference = generateReference(req.TransactionType)
	}

	entry := &model.StockLogEntry{
		ProductID:       req.ProductID,
		TransactionType: req.TransactionType,
		Quantity:        req.Quantity,
		PreviousStock:   previous,
		NewStock:        newStock,
		Reference:       reference,
		Reason:          req.Reason,
		SupplierID:      req.SupplierID,
		Notes:           req.Notes,
		UserID:          req.UserID,
	}

	if _, err := s.store.Insert(store.TableStockLogs, entry); err != nil {
		return nil, err
	}

	if newStock != previous {
		if _, err := s.store.Update(store.TableProducts, req.ProductID, &model.ProductPatch{CurrentStock: &newStock}); err != nil {
			return nil, fmt.Errorf("movement logged but stock update failed: %w", err)
		}
	}

	return entry, nil
}

// ListMovements returns ledger entries, newest first. An empty productID
// returns the whole ledger.
func (s *inventoryService) ListMovements(productID string) ([]*model.StockLogEntry, error) {
	records, err := s.store.GetAll(store.TableStockLogs)
	if err != nil {
		return nil, err
	}

	entries := make([]*model.StockLogEntry, 0, len(records))
	for _, rec := range records {
		entry := rec.(*model.StockLogEntry)
		if productID != "" && entry.ProductID != productID {
			continue
		}
		entries = append(entries, entry)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
