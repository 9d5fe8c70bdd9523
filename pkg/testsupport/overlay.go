package testsupport

import "reflect"

// OverlayNonZero returns a copy of stored with every non-zero exported field
// of patch written over it. This is the row an OmitZero update with
// RETURNING * leaves behind. T must be a struct or a pointer to one; any
// other type returns patch.
func OverlayNonZero[T any](stored, patch T) T {
	sv := reflect.ValueOf(stored)
	pv := reflect.ValueOf(patch)
	if !sv.IsValid() || !pv.IsValid() {
		return patch
	}

	isPtr := sv.Kind() == reflect.Ptr
	if isPtr {
		if sv.IsNil() || pv.IsNil() {
			return patch
		}
		sv, pv = sv.Elem(), pv.Elem()
	}
	if sv.Kind() != reflect.Struct {
		return patch
	}

	out := reflect.New(sv.Type()).Elem()
	out.Set(sv)
	for i := 0; i < pv.NumField(); i++ {
		if !sv.Type().Field(i).IsExported() {
			continue
		}
		if field := pv.Field(i); !field.IsZero() {
			out.Field(i).Set(field)
		}
	}

	if isPtr {
		return out.Addr().Interface().(T)
	}
	return out.Interface().(T)
}
