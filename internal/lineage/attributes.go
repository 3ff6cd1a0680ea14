package lineage

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// UnwrapAttributes converts a process attribute envelope into plain Go
// values. Strings, numbers, booleans, structs and lists are kept; null and
// unset values are dropped.
func UnwrapAttributes(attrs map[string]*structpb.Value) map[string]any {
	out := make(map[string]any, len(attrs))
	for key, v := range attrs {
		if plain, ok := unwrapValue(v); ok {
			out[key] = plain
		}
	}
	return out
}

func unwrapValue(v *structpb.Value) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue, true
	case *structpb.Value_NumberValue:
		return kind.NumberValue, true
	case *structpb.Value_BoolValue:
		return kind.BoolValue, true
	case *structpb.Value_StructValue:
		return kind.StructValue.AsMap(), true
	case *structpb.Value_ListValue:
		return kind.ListValue.AsSlice(), true
	default:
		return nil, false
	}
}

// NewProcessDetails builds ProcessDetails, lifting the conventional
// "description" and "created_by" string attributes into their own fields.
func NewProcessDetails(name, displayName, sourceType string, attrs map[string]*structpb.Value) *ProcessDetails {
	if sourceType == "" {
		sourceType = "UNKNOWN"
	}
	unwrapped := UnwrapAttributes(attrs)
	p := &ProcessDetails{
		ProcessName: name,
		DisplayName: displayName,
		SourceType:  sourceType,
		Attributes:  unwrapped,
	}
	if s, ok := unwrapped["description"].(string); ok {
		p.Description = s
	}
	if s, ok := unwrapped["created_by"].(string); ok {
		p.CreatedBy = s
	}
	return p
}
