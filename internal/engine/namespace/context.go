package namespace

import (
	"fmt"
	"path/filepath"
	"strings"

	coreerrors "weave/internal/core/errors"
	"weave/internal/engine/source"
	"weave/internal/engine/symbol"

	"github.com/gobwas/glob"
)

// Loader reads the raw text stored at an absolute location.
type Loader interface {
	Load(location string) (string, error)
}

// Context owns every piece of state that is shared between the namespaces of
// one build: the namespace cache, the ids already handed out, the property
// symbol table, the generated-name counter and the enum allocator. A fresh
// Context is created per build.
type Context struct {
	loader Loader

	byLocation map[string]*Namespace
	order      []*Namespace
	usedIDs    map[string]bool
	std        *Namespace

	properties    map[string][]*symbol.Symbol
	propertyOrder []string
	retainedNames map[string]bool
	retainGlobs   []glob.Glob

	generated     int
	enumsAssigned bool
}

// NewContext creates an empty build context. retainPatterns are glob patterns
// for property names that must keep their literal name in output.
func NewContext(loader Loader, retainPatterns []string) (*Context, error) {
	globs := make([]glob.Glob, 0, len(retainPatterns))
	for _, p := range retainPatterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, coreerrors.Wrap(err, coreerrors.CodeValidationError, fmt.Sprintf("invalid retain pattern %q", p))
		}
		globs = append(globs, g)
	}
	return &Context{
		loader:        loader,
		byLocation:    make(map[string]*Namespace),
		usedIDs:       make(map[string]bool),
		properties:    make(map[string][]*symbol.Symbol),
		retainedNames: make(map[string]bool),
		retainGlobs:   globs,
	}, nil
}

// Open returns the namespace for location, loading and registering it on
// first reference. created reports whether this call registered it.
func (c *Context) Open(location string) (ns *Namespace, created bool, err error) {
	location = normalizeLocation(location)
	if ns, ok := c.byLocation[location]; ok {
		return ns, false, nil
	}
	if c.loader == nil {
		return nil, false, coreerrors.New(coreerrors.CodeInternal, "namespace context has no loader")
	}
	text, err := c.loader.Load(location)
	if err != nil {
		de := &coreerrors.DomainError{Code: coreerrors.CodeImportFailed, Message: "cannot load source", Err: err}
		return nil, false, de.WithContext(coreerrors.CtxPath, location)
	}
	return c.register(source.NewUnit(text, location)), true, nil
}

// OpenUnit registers an already loaded unit, or returns the namespace that was
// registered for its location earlier.
func (c *Context) OpenUnit(unit *source.Unit) (*Namespace, bool) {
	location := normalizeLocation(unit.Name())
	if ns, ok := c.byLocation[location]; ok {
		return ns, false
	}
	return c.register(unit), true
}

// register makes the namespace reachable before it is parsed, which is what
// lets cyclic imports terminate.
func (c *Context) register(unit *source.Unit) *Namespace {
	ns := newNamespace(c, c.uniqueID(unit.ShortName()), unit)
	c.byLocation[normalizeLocation(unit.Name())] = ns
	c.order = append(c.order, ns)
	return ns
}

// uniqueID returns base, or base_2, base_3, ... for the first unused suffix.
func (c *Context) uniqueID(base string) string {
	id := base
	for n := 2; c.usedIDs[id]; n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	c.usedIDs[id] = true
	return id
}

// Namespaces returns every registered namespace in discovery order.
func (c *Context) Namespaces() []*Namespace {
	return append([]*Namespace(nil), c.order...)
}

func (c *Context) Lookup(location string) (*Namespace, bool) {
	ns, ok := c.byLocation[normalizeLocation(location)]
	return ns, ok
}

// ByID finds a registered namespace by its assigned id.
func (c *Context) ByID(id string) (*Namespace, bool) {
	for _, ns := range c.order {
		if ns.ID == id {
			return ns, true
		}
	}
	return nil, false
}

// GenerateSymbolName returns "#<prefix>_<n>" with n counting up from 0 per
// build. The '#' keeps generated names apart from anything a source can spell.
func (c *Context) GenerateSymbolName(prefix string) string {
	name := fmt.Sprintf("#%s_%d", prefix, c.generated)
	c.generated++
	return name
}

func (c *Context) SetStd(ns *Namespace) { c.std = ns }
func (c *Context) Std() *Namespace      { return c.std }

// Property creates a new identity for a program-wide property name.
func (c *Context) Property(name string) *symbol.Symbol {
	group, seen := c.properties[name]
	if !seen {
		c.propertyOrder = append(c.propertyOrder, name)
	}
	sym := symbol.NewProperty(name, c.isRetained(name))
	c.properties[name] = append(group, sym)
	return sym
}

// RetainProperty pins name to its literal spelling, including identities that
// were created before the call.
func (c *Context) RetainProperty(name string) {
	c.retainedNames[name] = true
	for _, sym := range c.properties[name] {
		sym.Retain()
	}
}

func (c *Context) isRetained(name string) bool {
	if c.retainedNames[name] {
		return true
	}
	for _, g := range c.retainGlobs {
		if g.Match(name) {
			c.retainedNames[name] = true
			return true
		}
	}
	return false
}

func normalizeLocation(location string) string {
	location = strings.TrimSpace(location)
	if abs, err := filepath.Abs(location); err == nil && !strings.HasPrefix(location, "$") {
		return filepath.Clean(abs)
	}
	return filepath.Clean(location)
}
