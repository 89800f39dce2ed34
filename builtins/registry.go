package builtins

import (
	"sort"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

// Handler executes one builtin call. args has exactly the declared arity.
type Handler func(bctx *Context, args []value.Value) (value.Value, error)

// Builtin declares a named handler with a fixed arity (0..4).
type Builtin struct {
	Fn    Handler
	Name  string
	Arity int
}

// Registry maps builtin names to handlers.
type Registry struct {
	byName map[string]*Builtin
}

// group constructors, one per domain file.
var groups = map[string]func() []*Builtin{
	"strings":     stringBuiltins,
	"numbers":     numberBuiltins,
	"aggregates":  aggregateBuiltins,
	"bits":        bitsBuiltins,
	"collections": collectionBuiltins,
	"encoding":    encodingBuiltins,
	"urlquery":    urlqueryBuiltins,
	"crypto":      cryptoBuiltins,
	"jsonpatch":   jsonPatchBuiltins,
	"yaml":        yamlBuiltins,
	"regex":       regexBuiltins,
	"glob":        globBuiltins,
	"units":       unitsBuiltins,
	"semver":      semverBuiltins,
	"time":        timeBuiltins,
	"uuid":        uuidBuiltins,
	"rand":        randBuiltins,
	"net":         netBuiltins,
	"misc":        miscBuiltins,
}

// Groups returns the names of all feature groups, sorted.
func Groups() []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry builds a registry with every feature group enabled.
func DefaultRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Builtin)}
	for _, build := range groups {
		for _, b := range build() {
			r.byName[b.Name] = b
		}
	}
	return r
}

// Without returns a copy of the registry in which the handlers of the
// named groups are replaced by stubs reporting an unsupported error. The
// names and arities stay registered so module boot still succeeds.
func (r *Registry) Without(disabled ...string) *Registry {
	out := &Registry{byName: make(map[string]*Builtin, len(r.byName))}
	for name, b := range r.byName {
		out.byName[name] = b
	}
	for _, group := range disabled {
		build, ok := groups[group]
		if !ok {
			continue
		}
		for _, b := range build() {
			if _, ok := out.byName[b.Name]; !ok {
				continue
			}
			out.byName[b.Name] = unsupportedStub(b.Name, b.Arity)
		}
	}
	return out
}

// Register adds or replaces a builtin, e.g. an embedder-supplied
// http.send. Arity must be 0..4.
func (r *Registry) Register(b *Builtin) error {
	if b.Arity < 0 || b.Arity > 4 {
		return errors.ABIMismatch("builtin %s declares arity %d, want 0..4", b.Name, b.Arity)
	}
	r.byName[b.Name] = b
	return nil
}

// Lookup returns the builtin registered under name.
func (r *Registry) Lookup(name string) (*Builtin, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// Names returns all registered builtin names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unsupportedStub(name string, arity int) *Builtin {
	return &Builtin{
		Name:  name,
		Arity: arity,
		Fn: func(*Context, []value.Value) (value.Value, error) {
			return nil, errors.Unsupported(name)
		},
	}
}
