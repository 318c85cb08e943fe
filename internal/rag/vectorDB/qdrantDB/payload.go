package qdrantDB

import (
	"github.com/qdrant/go-client/qdrant"
)

func toPayload(recordID string, metadata map[string]any) (map[string]*qdrant.Value, error) {
	m := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		m[k] = normalize(v)
	}
	m[recordIDKey] = recordID
	return qdrant.TryValueMap(m)
}

// fromPayload splits a stored payload back into the chunk id and its metadata.
func fromPayload(payload map[string]*qdrant.Value) (string, map[string]any) {
	metadata := make(map[string]any, len(payload))
	var id string
	for k, v := range payload {
		if k == recordIDKey {
			id = v.GetStringValue()
			continue
		}
		metadata[k] = fromValue(v)
	}
	return id, metadata
}

func fromValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for k, f := range fields {
			out[k] = fromValue(f)
		}
		return out
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		out := make([]any, len(values))
		for i, item := range values {
			out[i] = fromValue(item)
		}
		return out
	default:
		return nil
	}
}

// normalize widens typed slices and maps that TryValueMap does not accept.
func normalize(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	default:
		return v
	}
}
