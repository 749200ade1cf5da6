package flowctx

import (
	"encoding/json"
	"sort"

	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
)

// Context maps variable names to JSON values for one flow run.
type Context struct {
	vars map[string]jsonval.Value
}

func New() *Context {
	return &Context{vars: make(map[string]jsonval.Value)}
}

// Set stores value under name. A nil value is stored as JSON null.
func (c *Context) Set(name string, value jsonval.Value) {
	if value == nil {
		value = jsonval.Null{}
	}
	c.vars[name] = value
}

func (c *Context) Get(name string) (jsonval.Value, bool) {
	v, ok := c.vars[name]
	return v, ok
}

func (c *Context) Has(name string) bool {
	_, ok := c.vars[name]
	return ok
}

// Merge stores every entry of values, overwriting existing names.
func (c *Context) Merge(values map[string]jsonval.Value) {
	for k, v := range values {
		c.Set(k, v)
	}
}

func (c *Context) Len() int {
	return len(c.vars)
}

func (c *Context) Clear() {
	c.vars = make(map[string]jsonval.Value)
}

// Snapshot returns an immutable copy of the current variables.
func (c *Context) Snapshot() Snapshot {
	vars := make(map[string]jsonval.Value, len(c.vars))
	for k, v := range c.vars {
		vars[k] = v
	}
	return Snapshot{vars: vars}
}

// Snapshot is a read-only view of a Context at one point in time.
type Snapshot struct {
	vars map[string]jsonval.Value
}

func (s Snapshot) Get(name string) (jsonval.Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

func (s Snapshot) Has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

func (s Snapshot) Len() int {
	return len(s.vars)
}

// Names returns the variable names in sorted order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.vars))
	for k := range s.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Strings returns every variable in its canonical string form.
func (s Snapshot) Strings() map[string]string {
	out := make(map[string]string, len(s.vars))
	for k, v := range s.vars {
		out[k] = jsonval.Stringify(v)
	}
	return out
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	obj := jsonval.NewObject()
	for _, name := range s.Names() {
		obj.Set(name, s.vars[name])
	}
	return json.Marshal(obj)
}
