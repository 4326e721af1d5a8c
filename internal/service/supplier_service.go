package service

import (
	"errors"

	"go-stockwise/internal/model"
	"go-stockwise/internal/store"
	"go-stockwise/pkg/validator"
)

var ErrSupplierNotFound = errors.New("supplier not found")

type SupplierService interface {
	CreateSupplier(req *model.Supplier) (*model.Supplier, error)
	UpdateSupplier(id string, patch *model.SupplierPatch) (*model.Supplier, error)
	DeleteSupplier(id string) error
	GetSupplier(id string) (*model.Supplier, error)
	ListSuppliers(criteria store.Criteria) ([]*model.Supplier, error)
}

type supplierService struct {
	store *store.Store
}

func NewSupplierService(st *store.Store) SupplierService {
	return &supplierService{store: st}
}

func (s *supplierService) CreateSupplier(req *model.Supplier) (*model.Supplier, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	if req.Status == "" {
		req.Status = model.StatusActive
	}

	if _, err := s.store.Insert(store.TableSuppliers, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *supplierService) UpdateSupplier(id string, patch *model.SupplierPatch) (*model.Supplier, error) {
	if errs := validator.ValidateStruct(patch); len(errs) > 0 {
		return nil, validationError(errs)
	}

	ok, err := s.store.Update(store.TableSuppliers, id, patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSupplierNotFound
	}
	return s.GetSupplier(id)
}

// DeleteSupplier clears the supplier reference on every dependent product,
// then removes the supplier. Two steps, not atomic: a failure partway can
// leave some products detached with the supplier still present, which is
// harmless and repairable by retrying.
func (s *supplierService) DeleteSupplier(id string) error {
	products, err := s.store.Find(store.TableProducts, store.Criteria{"supplier_id": id})
	if err != nil {
		return err
	}
	for _, rec := range products {
		product := rec.(*model.Product)
		if product.SupplierID == nil || *product.SupplierID != id {
			continue
		}
		patch := map[string]any{"supplier_id": nil}
		if _, err := s.store.Update(store.TableProducts, product.ID, patch); err != nil {
			return err
		}
	}

	ok, err := s.store.Delete(store.TableSuppliers, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSupplierNotFound
	}
	return nil
}

func (s *supplierService) GetSupplier(id string) (*model.Supplier, error) {
	rec, err := s.store.GetByID(store.TableSuppliers, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return rec.(*model.Supplier), nil
}

func (s *supplierService) ListSuppliers(criteria store.Criteria) ([]*model.Supplier, error) {
	records, err := s.store.Find(store.TableSuppliers, criteria)
	if err != nil {
		return nil, err
	}
	suppliers := make([]*model.Supplier, 0, len(records))
	for _, rec := range records {
		suppliers = append(suppliers, rec.(*model.Supplier))
	}
	return suppliers, nil
}
