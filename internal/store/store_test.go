package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go-stockwise/internal/model"
	"go-stockwise/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	return Open(storage.Memory(), WithClock(clock.Now)), clock
}

func sampleProduct() *model.Product {
	return &model.Product{
		ProductName:  "Dell Laptop XPS 13",
		ProductCode:  "DELL-XPS-13",
		Category:     "Electronics",
		UnitPrice:    85000,
		CurrentStock: 25,
		MinimumStock: 5,
		Unit:         "pcs",
		Status:       model.StatusActive,
	}
}

func TestInsertStampsAndAudits(t *testing.T) {
	st, clock := setupStore(t)

	product := sampleProduct()
	id, err := st.Insert(TableProducts, product)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, product.ID)
	assert.Equal(t, clock.Now(), product.CreatedAt)
	assert.Equal(t, clock.Now(), product.UpdatedAt)

	activity := st.Activity()
	require.Len(t, activity, 1)
	assert.Equal(t, model.ActionInsert, activity[0].Action)
	assert.Equal(t, TableProducts, activity[0].TableName)
	assert.Equal(t, id, activity[0].RecordID)
	assert.Equal(t, "anonymous", activity[0].Username)
}

func TestGetByIDAbsent(t *testing.T) {
	st, _ := setupStore(t)

	rec, err := st.GetByID(TableProducts, "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestUnknownTableFailsLoudly(t *testing.T) {
	st, _ := setupStore(t)

	_, err := st.GetAll("warehouses")
	assert.ErrorIs(t, err, ErrUnknownTable)

	_, err = st.Insert("warehouses", sampleProduct())
	assert.ErrorIs(t, err, ErrUnknownTable)

	_, err = st.Update("warehouses", "id", &model.ProductPatch{})
	assert.ErrorIs(t, err, ErrUnknownTable)

	_, err = st.Delete("warehouses", "id")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestUpdateMergesPatch(t *testing.T) {
	st, clock := setupStore(t)

	product := sampleProduct()
	id, err := st.Insert(TableProducts, product)
	require.NoError(t, err)
	createdAt := product.CreatedAt

	clock.Advance(time.Minute)

	newStock := 30
	ok, err := st.Update(TableProducts, id, &model.ProductPatch{CurrentStock: &newStock})
	require.NoError(t, err)
	require.True(t, ok)

	rec, err := st.GetByID(TableProducts, id)
	require.NoError(t, err)
	got := rec.(*model.Product)

	// Patched field changed, everything else survived, created_at is
	// immutable and updated_at moved.
	assert.Equal(t, 30, got.CurrentStock)
	assert.Equal(t, "Dell Laptop XPS 13", got.ProductName)
	assert.Equal(t, 85000.0, got.UnitPrice)
	assert.True(t, got.CreatedAt.Equal(createdAt))
	assert.True(t, got.UpdatedAt.Equal(clock.Now()))
}

func TestUpdateMissingID(t *testing.T) {
	st, _ := setupStore(t)

	name := "x"
	ok, err := st.Update(TableProducts, "no-such-id", &model.ProductPatch{ProductName: &name})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, st.Activity())
}

func TestDelete(t *testing.T) {
	st, _ := setupStore(t)

	id, err := st.Insert(TableProducts, sampleProduct())
	require.NoError(t, err)

	ok, err := st.Delete(TableProducts, id)
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err := st.GetByID(TableProducts, id)
	require.NoError(t, err)
	assert.Nil(t, rec)

	ok, err = st.Delete(TableProducts, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindCriteria(t *testing.T) {
	st, _ := setupStore(t)

	laptop := sampleProduct()
	_, err := st.Insert(TableProducts, laptop)
	require.NoError(t, err)

	mouse := &model.Product{
		ProductName:  "Wireless Mouse",
		ProductCode:  "WM-001",
		Category:     "Electronics",
		CurrentStock: 3,
		MinimumStock: 10,
		Status:       model.StatusActive,
	}
	_, err = st.Insert(TableProducts, mouse)
	require.NoError(t, err)

	// String criteria match by case-insensitive substring.
	matched, err := st.Find(TableProducts, Criteria{"product_name": "LAPTOP"})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, laptop.ID, matched[0].GetID())

	// Non-string criteria match by equality, tolerant of JSON numerics.
	matched, err = st.Find(TableProducts, Criteria{"current_stock": 3})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, mouse.ID, matched[0].GetID())

	// All criteria must match.
	matched, err = st.Find(TableProducts, Criteria{"category": "Electronics", "current_stock": 3})
	require.NoError(t, err)
	assert.Len(t, matched, 1)

	// Empty criteria returns everything.
	matched, err = st.Find(TableProducts, Criteria{})
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	rec, err := st.FindOne(TableProducts, Criteria{"product_code": "wm-001"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, mouse.ID, rec.GetID())

	rec, err = st.FindOne(TableProducts, Criteria{"product_code": "nope"})
	require.NoError(t, err)
	assert.Nil(t, rec)

	count, err := st.Count(TableProducts, Criteria{"category": "Electronics"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestActivityLogCapped(t *testing.T) {
	st, _ := setupStore(t)

	ids := make([]string, 0, maxActivityEntries+10)
	for i := 0; i < maxActivityEntries+10; i++ {
		id, err := st.Insert(TableCategories, &model.Category{Name: fmt.Sprintf("cat-%d", i)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	activity := st.Activity()
	require.Len(t, activity, maxActivityEntries)
	// Oldest entries fall off the front; the log ends with the newest.
	assert.Equal(t, ids[10], activity[0].RecordID)
	assert.Equal(t, ids[len(ids)-1], activity[len(activity)-1].RecordID)
}

func TestActivityNotAuditedForItself(t *testing.T) {
	st, _ := setupStore(t)

	_, err := st.Insert(TableActivityLogs, &model.ActivityLogEntry{
		Action:    model.ActionLogin,
		UserID:    "u-1",
		Username:  "admin",
		TableName: "",
	})
	require.NoError(t, err)

	// Writing to the activity table must not generate a second entry
	// about the write itself.
	assert.Len(t, st.Activity(), 1)
}

func TestActorAttribution(t *testing.T) {
	st, _ := setupStore(t)
	st.SetActor(func() (string, string) { return "u-1", "admin" })

	_, err := st.Insert(TableCategories, &model.Category{Name: "Electronics"})
	require.NoError(t, err)

	activity := st.Activity()
	require.Len(t, activity, 1)
	assert.Equal(t, "u-1", activity[0].UserID)
	assert.Equal(t, "admin", activity[0].Username)
}

func TestObserversNotified(t *testing.T) {
	st, _ := setupStore(t)

	var events []Event
	cancel := st.OnChange(func(ev Event) {
		events = append(events, ev)
	})

	id, err := st.Insert(TableProducts, sampleProduct())
	require.NoError(t, err)

	stock := 10
	_, err = st.Update(TableProducts, id, &model.ProductPatch{CurrentStock: &stock})
	require.NoError(t, err)

	_, err = st.Delete(TableProducts, id)
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, Event{Table: TableProducts, Action: model.ActionInsert, RecordID: id}, events[0])
	assert.Equal(t, Event{Table: TableProducts, Action: model.ActionUpdate, RecordID: id}, events[1])
	assert.Equal(t, Event{Table: TableProducts, Action: model.ActionDelete, RecordID: id}, events[2])

	cancel()
	_, err = st.Insert(TableProducts, sampleProduct())
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

// flakyKV fails writes to selected keys, for exercising degraded storage.
type flakyKV struct {
	storage.KV
	failKeys map[string]bool
}

func (f *flakyKV) Set(key string, value []byte) error {
	if f.failKeys[key] {
		return errors.New("storage unavailable")
	}
	return f.KV.Set(key, value)
}

func (f *flakyKV) Get(key string) ([]byte, bool, error) {
	if f.failKeys[key] {
		return nil, false, errors.New("storage unavailable")
	}
	return f.KV.Get(key)
}

func TestAuditFailureDoesNotFailMutation(t *testing.T) {
	kv := &flakyKV{KV: storage.Memory(), failKeys: map[string]bool{}}
	st := Open(kv, WithClock(newFakeClock().Now))

	// Break only the activity log key; the product write must still
	// succeed and report success.
	kv.failKeys["stockwise_activity_logs"] = true

	id, err := st.Insert(TableProducts, sampleProduct())
	require.NoError(t, err)

	rec, err := st.GetByID(TableProducts, id)
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestReadDegradesOnStorageFailure(t *testing.T) {
	kv := &flakyKV{KV: storage.Memory(), failKeys: map[string]bool{}}
	st := Open(kv, WithClock(newFakeClock().Now))

	kv.failKeys["stockwise_products"] = true

	// Reads degrade to empty rather than erroring.
	records, err := st.GetAll(TableProducts)
	require.NoError(t, err)
	assert.Empty(t, records)

	// Mutations surface the failure.
	_, err = st.Insert(TableProducts, sampleProduct())
	assert.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	st, _ := setupStore(t)

	id, err := st.Insert(TableProducts, sampleProduct())
	require.NoError(t, err)
	_, err = st.Insert(TableCategories, &model.Category{Name: "Electronics"})
	require.NoError(t, err)

	dump, err := st.Export()
	require.NoError(t, err)
	assert.Len(t, dump, 6)

	// Restore into a fresh store.
	st2, _ := setupStore(t)
	require.NoError(t, st2.Import(dump))

	rec, err := st2.GetByID(TableProducts, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Dell Laptop XPS 13", rec.(*model.Product).ProductName)

	count, err := st2.Count(TableCategories, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestImportSkipsUnknownTables(t *testing.T) {
	st, _ := setupStore(t)

	dump, err := st.Export()
	require.NoError(t, err)
	dump["warehouses"] = []byte(`[{"id":"w-1"}]`)

	require.NoError(t, st.Import(dump))

	_, err = st.GetAll("warehouses")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestImportRejectsBadPayloadBeforeWriting(t *testing.T) {
	st, _ := setupStore(t)

	id, err := st.Insert(TableProducts, sampleProduct())
	require.NoError(t, err)

	err = st.Import(map[string]json.RawMessage{
		TableProducts: json.RawMessage(`"not an array"`),
	})
	assert.Error(t, err)

	// Existing data untouched.
	rec, err := st.GetByID(TableProducts, id)
	require.NoError(t, err)
	assert.NotNil(t, rec)
}
