package jsonval

import (
	"strconv"
	"strings"
)

// DefaultFieldDepth is the recursion limit used by Fields when callers have
// no preference.
const DefaultFieldDepth = 5

// Resolve walks a dot-separated path from root. The boolean reports whether
// the path was found; a found null is returned as Null{} with true.
func Resolve(root Value, path string) (Value, bool) {
	if path == "" || root == nil {
		return nil, false
	}

	current := root
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case Array:
			if !isIndex(segment) {
				return nil, false
			}
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		case *Object:
			if isIndex(segment) {
				return nil, false
			}
			v, ok := node.Get(segment)
			if !ok {
				return nil, false
			}
			current = v
		default:
			// null, scalars and anything else cannot be traversed
			return nil, false
		}
		if current == nil {
			current = Null{}
		}
	}
	return current, true
}

// TypeName classifies a value as null, boolean, number, string, array or
// object. A nil Value is null.
func TypeName(v Value) string {
	if v == nil {
		return KindNull.String()
	}
	return v.Kind().String()
}

// Fields lists the dot paths reachable from v. Every key of an object is
// listed and expanded; arrays are only expanded through their first element.
// Recursion stops once maxDepth levels have been consumed.
func Fields(v Value, maxDepth int) []string {
	return collectFields(v, "", maxDepth)
}

func collectFields(v Value, prefix string, depth int) []string {
	var fields []string
	if depth <= 0 {
		return fields
	}

	switch node := v.(type) {
	case *Object:
		for _, key := range node.keys {
			path := joinPath(prefix, key)
			fields = append(fields, path)
			child := node.fields[key]
			if isContainer(child) {
				fields = append(fields, collectFields(child, path, depth-1)...)
			}
		}
	case Array:
		if len(node) == 0 {
			return fields
		}
		path := joinPath(prefix, "0")
		if isContainer(node[0]) {
			fields = append(fields, collectFields(node[0], path, depth-1)...)
		} else {
			fields = append(fields, path)
		}
	}
	return fields
}

func isContainer(v Value) bool {
	switch v.(type) {
	case Array, *Object:
		return true
	}
	return false
}

func isIndex(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
