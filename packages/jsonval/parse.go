package jsonval

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned by Parse when the input is not a JSON document.
var ErrInvalidJSON = errors.New("invalid JSON")

// Parse decodes a JSON document. Object keys keep their document order.
func Parse(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

// ParseOrNil returns the parsed document, or nil when data is not JSON.
func ParseOrNil(data []byte) Value {
	v, err := Parse(data)
	if err != nil {
		return nil
	}
	return v
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return Null{}
	case gjson.True:
		return Bool(true)
	case gjson.False:
		return Bool(false)
	case gjson.Number:
		return Number{Float: r.Num, Raw: r.Raw}
	case gjson.String:
		return String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			arr := Array{}
			r.ForEach(func(_, item gjson.Result) bool {
				arr = append(arr, fromResult(item))
				return true
			})
			return arr
		}
		obj := NewObject()
		r.ForEach(func(key, item gjson.Result) bool {
			obj.Set(key.Str, fromResult(item))
			return true
		})
		return obj
	default:
		return Null{}
	}
}
