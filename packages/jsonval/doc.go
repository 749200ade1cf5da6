// Package jsonval models JSON response bodies as a closed set of value kinds
// and resolves dot-separated field paths over them.
//
// A path such as "data.items.0.id" is split on dots. An all-digit segment
// indexes into an array, any other segment is an object key. Resolution stops
// at the first null, missing key, out-of-range index or non-container, and no
// implicit conversions are applied along the way.
//
// Values are built from raw bytes with Parse (backed by gjson, which keeps
// object keys in document order) or from decoded Go values with FromAny.
package jsonval
