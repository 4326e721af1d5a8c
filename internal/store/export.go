package store

import (
	"encoding/json"
	"log"

	"go-stockwise/internal/model"
)

// Export returns every table's records keyed by table name, in the same
// JSON shape the tables are persisted in. The result is suitable for
// Import and for download as a backup file.
func (s *Store) Export() (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]json.RawMessage, len(s.tables))
	for name, def := range s.tables {
		records, err := s.load(def)
		if err != nil {
			records = nil
		}
		raw, err := def.codec.encode(records)
		if err != nil {
			return nil, err
		}
		out[name] = raw
	}
	return out, nil
}

// Import replaces named tables wholesale with the payload's contents.
// Unknown table names are skipped, not errors, so backups from newer
// versions still restore what they can. Payloads that do not decode as the
// table's record type are rejected before anything is written.
func (s *Store) Import(data map[string]json.RawMessage) error {
	replaced, err := s.importTables(data)
	if err != nil {
		return err
	}
	for _, table := range replaced {
		s.notify(Event{Table: table, Action: model.ActionUpdate})
	}
	return nil
}

func (s *Store) importTables(data map[string]json.RawMessage) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type staged struct {
		def     tableDef
		records []model.Record
	}

	stage := make(map[string]staged, len(data))
	for name, raw := range data {
		def, ok := s.tables[name]
		if !ok {
			log.Printf("store: import skipping unknown table %q", name)
			continue
		}
		records, err := def.codec.decode(raw)
		if err != nil {
			return nil, err
		}
		stage[name] = staged{def: def, records: records}
	}

	replaced := make([]string, 0, len(stage))
	for name, st := range stage {
		if err := s.save(st.def, st.records); err != nil {
			return replaced, err
		}
		replaced = append(replaced, name)
	}
	return replaced, nil
}
