package omitnil

import "reflect"

// Compact returns a copy of fields without nil values. Typed nils (pointers,
// maps, slices, interfaces) are dropped too and non-nil pointers are
// dereferenced, so the result marshals without null entries.
func Compact(fields map[string]any) map[string]any {
	compacted := make(map[string]any, len(fields))
	for key, value := range fields {
		if value == nil {
			continue
		}

		v := reflect.ValueOf(value)
		switch v.Kind() {
		case reflect.Pointer:
			if v.IsNil() {
				continue
			}
			compacted[key] = v.Elem().Interface()
		case reflect.Map, reflect.Slice, reflect.Interface:
			if v.IsNil() {
				continue
			}
			compacted[key] = value
		default:
			compacted[key] = value
		}
	}

	return compacted
}
