package docstore

import (
	"reflect"
)

// Sanitize returns a copy of data with every absent value coerced to an
// explicit null. The store's wire protocol rejects undefined values, and in
// Go "undefined" shows up as nil pointers, nil maps/slices, or typed nil
// interfaces, none of which serialize cleanly.
func Sanitize(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if isAbsent(v) {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	return out
}

func isAbsent(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
