package store

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go-stockwise/internal/model"
	"go-stockwise/pkg/storage"

	"github.com/google/uuid"
)

// Recognized table names.
const (
	TableUsers        = "users"
	TableProducts     = "products"
	TableSuppliers    = "suppliers"
	TableStockLogs    = "stock_logs"
	TableActivityLogs = "activity_logs"
	TableCategories   = "categories"
)

// ErrUnknownTable is returned when a caller names a table outside the
// recognized set. This is a programmer error and always fails loudly.
var ErrUnknownTable = errors.New("unknown table")

const maxActivityEntries = 1000

type tableDef struct {
	key   string
	codec codec
}

func tableDefs() map[string]tableDef {
	return map[string]tableDef{
		TableUsers:        {key: "stockwise_users", codec: newCodec[model.User]()},
		TableProducts:     {key: "stockwise_products", codec: newCodec[model.Product]()},
		TableSuppliers:    {key: "stockwise_suppliers", codec: newCodec[model.Supplier]()},
		TableStockLogs:    {key: "stockwise_stock_logs", codec: newCodec[model.StockLogEntry]()},
		TableActivityLogs: {key: "stockwise_activity_logs", codec: newCodec[model.ActivityLogEntry]()},
		TableCategories:   {key: "stockwise_categories", codec: newCodec[model.Category]()},
	}
}

// Event describes one committed change, delivered to OnChange observers.
type Event struct {
	Table    string               `json:"table"`
	Action   model.ActivityAction `json:"action"`
	RecordID string               `json:"record_id,omitempty"`
}

// ActorFunc reports who is performing mutations, for the audit trail.
type ActorFunc func() (userID, username string)

// Store is the keyed-collection persistence layer: six named tables, each
// serialized as one JSON array in the underlying key/value medium. All
// writes are serialized by a single mutex; the read-modify-write update
// path is not safe without it.
type Store struct {
	kv    storage.KV
	now   func() time.Time
	actor ActorFunc

	mu     sync.Mutex
	tables map[string]tableDef

	obsMu     sync.Mutex
	obsNext   int
	observers map[int]func(Event)
}

// Option configures a Store at construction.
type Option func(*Store)

// WithClock overrides the time source. Tests use it to control stamps and
// drive expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithActor sets the callback that attributes audit entries to a user.
func WithActor(actor ActorFunc) Option {
	return func(s *Store) { s.actor = actor }
}

// Open constructs a Store over the given medium and ensures every table
// key exists. The store does not own the KV; the caller closes it.
func Open(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:        kv,
		now:       time.Now,
		tables:    tableDefs(),
		observers: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}

	for name, def := range s.tables {
		_, ok, err := kv.Get(def.key)
		if err != nil {
			log.Printf("store: storage unavailable while initializing %s: %v", name, err)
			continue
		}
		if !ok {
			if err := kv.Set(def.key, []byte("[]")); err != nil {
				log.Printf("store: failed to initialize table %s: %v", name, err)
			}
		}
	}

	return s
}

// SetActor replaces the audit attribution callback after construction.
// Wiring needs this because the session manager is built after the store.
func (s *Store) SetActor(actor ActorFunc) {
	s.mu.Lock()
	s.actor = actor
	s.mu.Unlock()
}

// NewID returns a fresh identifier, unique among ids generated in this
// process.
func (s *Store) NewID() string {
	return uuid.NewString()
}

// OnChange registers an observer invoked after every committed mutation.
// The returned func cancels the subscription.
func (s *Store) OnChange(fn func(Event)) func() {
	s.obsMu.Lock()
	id := s.obsNext
	s.obsNext++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// notify runs outside the table mutex so observers may call back into the
// store.
func (s *Store) notify(ev Event) {
	s.obsMu.Lock()
	fns := make([]func(Event), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Store) table(name string) (tableDef, error) {
	def, ok := s.tables[name]
	if !ok {
		return tableDef{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return def, nil
}

func (s *Store) load(def tableDef) ([]model.Record, error) {
	raw, ok, err := s.kv.Get(def.key)
	if err != nil {
		log.Printf("store: storage unavailable reading %s: %v", def.key, err)
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	records, err := def.codec.decode(raw)
	if err != nil {
		log.Printf("store: corrupt table data at %s: %v", def.key, err)
		return nil, err
	}
	return records, nil
}

func (s *Store) save(def tableDef, records []model.Record) error {
	raw, err := def.codec.encode(records)
	if err != nil {
		return err
	}
	return s.kv.Set(def.key, raw)
}

// GetAll returns the full contents of a table. An unavailable or corrupt
// medium degrades to an empty result; only an unrecognized table name is an
// error.
func (s *Store) GetAll(table string) ([]model.Record, error) {
	def, err := s.table(table)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(def)
	if err != nil {
		return []model.Record{}, nil
	}
	return records, nil
}

// GetByID returns the record with the given id, or nil if absent. Absence
// is a valid, silent result.
func (s *Store) GetByID(table, id string) (model.Record, error) {
	records, err := s.GetAll(table)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.GetID() == id {
			return rec, nil
		}
	}
	return nil, nil
}

// Find returns all records matching every criterion. String criteria match
// by case-insensitive substring, everything else by equality. Empty
// criteria matches the whole table.
func (s *Store) Find(table string, criteria Criteria) ([]model.Record, error) {
	records, err := s.GetAll(table)
	if err != nil {
		return nil, err
	}
	if len(criteria) == 0 {
		return records, nil
	}

	matched := make([]model.Record, 0, len(records))
	for _, rec := range records {
		ok, err := criteria.matches(rec)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// FindOne returns the first match in table order, or nil.
func (s *Store) FindOne(table string, criteria Criteria) (model.Record, error) {
	matched, err := s.Find(table, criteria)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}
	return matched[0], nil
}

// Count reports how many records match the criteria.
func (s *Store) Count(table string, criteria Criteria) (int, error) {
	matched, err := s.Find(table, criteria)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

// Insert assigns a fresh id, stamps created_at/updated_at, appends the
// record and audits the write. The caller's record is mutated only by the
// id and timestamp stamps.
func (s *Store) Insert(table string, rec model.Record) (string, error) {
	id, err := s.insert(table, rec)
	if err != nil {
		return "", err
	}
	s.notify(Event{Table: table, Action: model.ActionInsert, RecordID: id})
	return id, nil
}

func (s *Store) insert(table string, rec model.Record) (string, error) {
	def, err := s.table(table)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(def)
	if err != nil {
		return "", err
	}

	rec.SetID(s.NewID())
	now := s.now()
	rec.Stamp(now, now)

	records = append(records, rec)
	if err := s.save(def, records); err != nil {
		return "", err
	}

	if table != TableActivityLogs {
		s.logActivity(model.ActionInsert, table, rec.GetID())
	}
	return rec.GetID(), nil
}

// Update merges the patch onto the stored record and re-stamps updated_at.
// Patches are the typed *Patch variants from the model package (or any
// value whose JSON form carries only the fields to overwrite). Returns
// false without side effects when the id does not exist.
func (s *Store) Update(table, id string, patch any) (bool, error) {
	ok, err := s.update(table, id, patch)
	if err != nil || !ok {
		return ok, err
	}
	s.notify(Event{Table: table, Action: model.ActionUpdate, RecordID: id})
	return true, nil
}

func (s *Store) update(table, id string, patch any) (bool, error) {
	def, err := s.table(table)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(def)
	if err != nil {
		return false, err
	}

	for _, rec := range records {
		if rec.GetID() != id {
			continue
		}

		if err := mergePatch(rec, patch); err != nil {
			return false, err
		}
		rec.Touch(s.now())

		if err := s.save(def, records); err != nil {
			return false, err
		}
		if table != TableActivityLogs {
			s.logActivity(model.ActionUpdate, table, id)
		}
		return true, nil
	}

	return false, nil
}

// Delete removes the record with the given id. Returns false without side
// effects when the id does not exist.
func (s *Store) Delete(table, id string) (bool, error) {
	ok, err := s.delete(table, id)
	if err != nil || !ok {
		return ok, err
	}
	s.notify(Event{Table: table, Action: model.ActionDelete, RecordID: id})
	return true, nil
}

func (s *Store) delete(table, id string) (bool, error) {
	def, err := s.table(table)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(def)
	if err != nil {
		return false, err
	}

	for i, rec := range records {
		if rec.GetID() != id {
			continue
		}

		records = append(records[:i], records[i+1:]...)
		if err := s.save(def, records); err != nil {
			return false, err
		}
		if table != TableActivityLogs {
			s.logActivity(model.ActionDelete, table, id)
		}
		return true, nil
	}

	return false, nil
}

// logActivity appends one audit entry, evicting the oldest entries beyond
// the cap. Audit failures are logged and swallowed: the primary mutation
// has already committed and must not be rolled back or reported failed
// because of best-effort logging.
//
// Called with s.mu held.
func (s *Store) logActivity(action model.ActivityAction, table, recordID string) {
	userID, username := "", "anonymous"
	if s.actor != nil {
		if id, name := s.actor(); name != "" {
			userID, username = id, name
		}
	}

	entry := &model.ActivityLogEntry{
		ID:        s.NewID(),
		Action:    action,
		TableName: table,
		RecordID:  recordID,
		UserID:    userID,
		Username:  username,
		Timestamp: s.now(),
	}

	def := s.tables[TableActivityLogs]
	records, err := s.load(def)
	if err != nil {
		log.Printf("store: activity log read failed: %v", err)
		return
	}

	records = append(records, entry)
	if len(records) > maxActivityEntries {
		records = records[len(records)-maxActivityEntries:]
	}

	if err := s.save(def, records); err != nil {
		log.Printf("store: activity log write failed: %v", err)
	}
}

// Activity returns the audit trail, oldest first.
func (s *Store) Activity() []model.ActivityLogEntry {
	records, err := s.GetAll(TableActivityLogs)
	if err != nil {
		return nil
	}
	entries := make([]model.ActivityLogEntry, 0, len(records))
	for _, rec := range records {
		if e, ok := rec.(*model.ActivityLogEntry); ok {
			entries = append(entries, *e)
		}
	}
	return entries
}
