package service

import (
	"testing"

	"go-stockwise/internal/model"
	"go-stockwise/internal/store"
	"go-stockwise/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSuppliers(t *testing.T) (SupplierService, InventoryService) {
	t.Helper()
	st := store.Open(storage.Memory())
	return NewSupplierService(st), NewInventoryService(st)
}

func TestSupplierCRUD(t *testing.T) {
	svc, _ := setupSuppliers(t)

	created, err := svc.CreateSupplier(&model.Supplier{
		SupplierName:  "TechCorp Solutions",
		ContactPerson: "John Smith",
		Email:         "john@techcorp.com",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, created.Status)

	_, err = svc.CreateSupplier(&model.Supplier{Email: "nameless@example.com"})
	assert.Error(t, err)

	phone := "+91-9876543210"
	updated, err := svc.UpdateSupplier(created.ID, &model.SupplierPatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, "TechCorp Solutions", updated.SupplierName)

	_, err = svc.UpdateSupplier("no-such-id", &model.SupplierPatch{Phone: &phone})
	assert.ErrorIs(t, err, ErrSupplierNotFound)

	list, err := svc.ListSuppliers(store.Criteria{"supplier_name": "techcorp"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDeleteSupplierDetachesProducts(t *testing.T) {
	svc, inventory := setupSuppliers(t)

	supplier, err := svc.CreateSupplier(&model.Supplier{SupplierName: "TechCorp Solutions"})
	require.NoError(t, err)
	other, err := svc.CreateSupplier(&model.Supplier{SupplierName: "Fashion Hub Ltd"})
	require.NoError(t, err)

	linked := newProduct("SKU-1", 10, 5)
	linked.SupplierID = &supplier.ID
	_, err = inventory.CreateProduct(linked)
	require.NoError(t, err)

	unrelated := newProduct("SKU-2", 10, 5)
	unrelated.SupplierID = &other.ID
	_, err = inventory.CreateProduct(unrelated)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSupplier(supplier.ID))

	gone, err := svc.GetSupplier(supplier.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// The dependent product survives with its reference cleared; the
	// unrelated product keeps its supplier.
	detached, err := inventory.GetProduct(linked.ID)
	require.NoError(t, err)
	assert.Nil(t, detached.SupplierID)

	kept, err := inventory.GetProduct(unrelated.ID)
	require.NoError(t, err)
	require.NotNil(t, kept.SupplierID)
	assert.Equal(t, other.ID, *kept.SupplierID)

	assert.ErrorIs(t, svc.DeleteSupplier(supplier.ID), ErrSupplierNotFound)
}
