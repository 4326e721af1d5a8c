package store

import (
	"encoding/json"

	"go-stockwise/internal/model"
)

type recordPtr[T any] interface {
	*T
	model.Record
}

// codec converts between a table's persisted JSON array and its typed
// records.
type codec struct {
	decode func(raw []byte) ([]model.Record, error)
	encode func(records []model.Record) ([]byte, error)
}

func newCodec[T any, PT recordPtr[T]]() codec {
	return codec{
		decode: func(raw []byte) ([]model.Record, error) {
			if len(raw) == 0 {
				return nil, nil
			}
			var items []T
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, err
			}
			records := make([]model.Record, len(items))
			for i := range items {
				records[i] = PT(&items[i])
			}
			return records, nil
		},
		encode: func(records []model.Record) ([]byte, error) {
			items := make([]T, len(records))
			for i, rec := range records {
				items[i] = *(rec.(PT))
			}
			return json.Marshal(items)
		},
	}
}

// mergePatch overlays the patch's JSON fields onto the record: provided
// fields overwrite, omitted fields keep their stored value. The id and
// created_at stamp are immutable, so they are stripped from the patch
// before it is applied.
func mergePatch(rec model.Record, patch any) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	delete(fields, "id")
	delete(fields, "created_at")
	delete(fields, "updated_at")
	if len(fields) == 0 {
		return nil
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, rec)
}
