package handler

import (
	"reflect"
	"strings"
)

// sanitize trims whitespace in every string, []string and nested struct
// pointer field of a request body. Blank gallery entries are left for
// ImageSet.Normalize to drop.
func sanitize(v any) {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer || val.IsNil() {
		return
	}
	trimStruct(val.Elem())
}

func trimStruct(val reflect.Value) {
	if val.Kind() != reflect.Struct {
		return
	}
	for i := range val.NumField() {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(strings.TrimSpace(field.String()))
		case reflect.Slice:
			if field.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := range field.Len() {
				elem := field.Index(j)
				elem.SetString(strings.TrimSpace(elem.String()))
			}
		case reflect.Pointer:
			if !field.IsNil() {
				trimStruct(field.Elem())
			}
		}
	}
}
