package mirror

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Record is one mirrored write.
type Record struct {
	ID     ulid.ULID
	Time   time.Time
	Query  string
	Params []any
}

func encodeRecord(r *Record) ([]byte, error) {
	params, err := structpb.NewList(normalizeList(r.Params))
	if err != nil {
		return nil, fmt.Errorf("mirror: encode params: %w", err)
	}
	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		"query":  structpb.NewStringValue(r.Query),
		"params": structpb.NewListValue(params),
		"time":   structpb.NewStringValue(r.Time.UTC().Format(time.RFC3339Nano)),
	}}
	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}

func decodeRecord(id ulid.ULID, data []byte) (*Record, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("mirror: decode record %s: %w", id, err)
	}
	r := &Record{
		ID:    id,
		Query: s.Fields["query"].GetStringValue(),
	}
	if ts := s.Fields["time"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("mirror: decode record %s: %w", id, err)
		}
		r.Time = t
	}
	if l := s.Fields["params"].GetListValue(); l != nil {
		r.Params = l.AsSlice()
	}
	return r, nil
}

// normalizeList rewrites values structpb rejects, such as json.Number and
// []byte, recursively.
func normalizeList(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = normalize(v)
	}
	return out
}

func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []byte:
		return string(x)
	case []any:
		return normalizeList(x)
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = normalize(e)
		}
		return m
	}
	return v
}
