package tools

import (
	"encoding/json"
	"fmt"

	"github.com/Comcast/quill/payload"
)

// Normalize turns a value decoded from a session document into a
// value a writer accepts.
//
// JSON numbers become int64 when they can and float64 otherwise.
// Lists become collection values.  A map with "enum" (and optionally
// "type") is an enum member, and a map with "readLink", "editLink",
// or "contentType" is a stream reference.  Other maps are left
// alone, so a writer will reject them.
func Normalize(x interface{}) interface{} {
	switch vv := x.(type) {
	case json.Number:
		if n, err := vv.Int64(); err == nil {
			return n
		}
		if f, err := vv.Float64(); err == nil {
			return f
		}
		return string(vv)
	case []interface{}:
		cv := &payload.CollectionValue{Items: make([]interface{}, len(vv))}
		for i, y := range vv {
			cv.Items[i] = Normalize(y)
		}
		return cv
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			m[fmt.Sprint(k)] = v
		}
		return Normalize(m)
	case map[string]interface{}:
		if e, have := vv["enum"]; have {
			t, _ := vv["type"].(string)
			return &payload.EnumValue{TypeName: t, Value: fmt.Sprint(e)}
		}
		for _, k := range []string{"readLink", "editLink", "contentType"} {
			if _, have := vv[k]; have {
				return &payload.StreamReference{
					EditLink:    str(vv, "editLink"),
					ReadLink:    str(vv, "readLink"),
					ContentType: str(vv, "contentType"),
					ETag:        str(vv, "etag"),
				}
			}
		}
	}
	return x
}

func str(m map[string]interface{}, k string) string {
	s, _ := m[k].(string)
	return s
}
