// Package closure implements the Taxonomic Closure (spec section 4.5) by
// wrapping github.com/google/mangle — a real Datalog evaluator — the same
// way the teacher's internal/mangle package wraps it. Unlike the teacher,
// this engine never sees runtime-authored rules or arbitrary-IRI facts: it
// loads exactly one fixed, closed Datalog program (subclass_of/2 and
// subproperty_of/2 transitive closure) over the small, fixed vocabulary in
// internal/vocab. See SPEC_FULL.md section B.3 for why the much larger
// Fact Store is NOT built on this same engine.
package closure

import (
	"fmt"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	mgstore "github.com/google/mangle/factstore"
	_ "github.com/google/mangle/packages"
	"github.com/google/mangle/parse"

	"laderr/internal/factstore"
	"laderr/internal/model"
	"laderr/internal/vocab"
)

// schemaSource declares the two transitive-closure rules. Mangle predicate
// and constant names must start with a lowercase letter, so class names
// (which are capitalized in internal/vocab) are translated through
// toMangleAtom on the way in and mapped back through Compute's
// mangleToClass table on the way out; property names already satisfy the
// grammar unchanged.
const schemaSource = `
Decl subclass_of(X, Y) descr [mode("+", "-")].
Decl subclass_of_plus(X, Y) descr [mode("+", "-")].
subclass_of_plus(X, Y) :- subclass_of(X, Y).
subclass_of_plus(X, Z) :- subclass_of(X, Y), subclass_of_plus(Y, Z).

Decl subproperty_of(X, Y) descr [mode("+", "-")].
Decl subproperty_of_plus(X, Y) descr [mode("+", "-")].
subproperty_of_plus(X, Y) :- subproperty_of(X, Y).
subproperty_of_plus(X, Z) :- subproperty_of(X, Y), subproperty_of_plus(Y, Z).
`

// Engine is a minimal wrapper around a Mangle fact store and compiled
// program, mirroring the shape of the teacher's internal/mangle.Engine
// (Config/LoadSchemaString/AddFact/RecomputeRules) scaled down to the one
// fixed schema this package ever loads.
type Engine struct {
	store          mgstore.FactStoreWithRemove
	programInfo    *analysis.ProgramInfo
	predicateIndex map[string]ast.PredicateSym
}

// NewEngine returns an Engine with an empty in-memory Mangle fact store.
func NewEngine() *Engine {
	return &Engine{
		store:          mgstore.NewSimpleInMemoryStore(),
		predicateIndex: make(map[string]ast.PredicateSym),
	}
}

// LoadSchemaString parses and analyzes a Mangle program, refreshing the
// predicate index used by AddFact and GetFacts.
func (e *Engine) LoadSchemaString(schema string) error {
	unit, err := parse.Unit(strings.NewReader(schema))
	if err != nil {
		return fmt.Errorf("parse closure schema: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return fmt.Errorf("analyze closure schema: %w", err)
	}
	e.programInfo = info
	for sym := range info.Decls {
		e.predicateIndex[sym.Symbol] = sym
	}
	return nil
}

// AddFact inserts a binary fact predicate(a, b), encoding a and b as
// Mangle Name constants.
func (e *Engine) AddFact(predicate, a, b string) error {
	sym, ok := e.predicateIndex[predicate]
	if !ok {
		return fmt.Errorf("predicate %s is not declared in the closure schema", predicate)
	}
	an, err := ast.Name("/" + a)
	if err != nil {
		return fmt.Errorf("encode %q as a Mangle name: %w", a, err)
	}
	bn, err := ast.Name("/" + b)
	if err != nil {
		return fmt.Errorf("encode %q as a Mangle name: %w", b, err)
	}
	e.store.Add(ast.Atom{Predicate: sym, Args: []ast.BaseTerm{an, bn}})
	return nil
}

// RecomputeRules evaluates the compiled program to a fixed point.
func (e *Engine) RecomputeRules() error {
	if e.programInfo == nil {
		return fmt.Errorf("no schema loaded; call LoadSchemaString first")
	}
	_, err := mengine.EvalProgramWithStats(e.programInfo, e.store)
	return err
}

// GetFacts returns every (a, b) pair currently stored for predicate, with
// the leading "/" stripped from each Mangle Name.
func (e *Engine) GetFacts(predicate string) ([][2]string, error) {
	sym, ok := e.predicateIndex[predicate]
	if !ok {
		return nil, fmt.Errorf("predicate %s is not declared in the closure schema", predicate)
	}
	var out [][2]string
	err := e.store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		if len(atom.Args) != 2 {
			return nil
		}
		a, aok := atom.Args[0].(ast.Constant)
		b, bok := atom.Args[1].(ast.Constant)
		if !aok || !bok {
			return nil
		}
		out = append(out, [2]string{strings.TrimPrefix(a.Symbol, "/"), strings.TrimPrefix(b.Symbol, "/")})
		return nil
	})
	return out, err
}

func toMangleAtom(localName string) string {
	if localName == "" {
		return localName
	}
	return strings.ToLower(localName[:1]) + localName[1:]
}

// Closure holds the precomputed ancestor sets for every class and property
// in internal/vocab. The vocabulary never changes at runtime, so this is
// computed once per process rather than once per Taxonomic Closure pass.
type Closure struct {
	classAncestors    map[string][]string
	propertyAncestors map[string][]string
}

// Compute runs the fixed Datalog program over internal/vocab's class and
// property hierarchy and returns the resulting ancestor sets.
func Compute() (*Closure, error) {
	eng := NewEngine()
	if err := eng.LoadSchemaString(schemaSource); err != nil {
		return nil, err
	}

	mangleToClass := make(map[string]string)
	for sub, super := range vocab.ClassHierarchy {
		mangleSub, mangleSuper := toMangleAtom(sub), toMangleAtom(super)
		mangleToClass[mangleSub] = sub
		mangleToClass[mangleSuper] = super
		if err := eng.AddFact("subclass_of", mangleSub, mangleSuper); err != nil {
			return nil, err
		}
	}
	mangleToProperty := make(map[string]string)
	for sub, super := range vocab.PropertyHierarchy {
		mangleToProperty[sub] = sub
		mangleToProperty[super] = super
		if err := eng.AddFact("subproperty_of", sub, super); err != nil {
			return nil, err
		}
	}

	if err := eng.RecomputeRules(); err != nil {
		return nil, err
	}

	classPairs, err := eng.GetFacts("subclass_of_plus")
	if err != nil {
		return nil, err
	}
	propPairs, err := eng.GetFacts("subproperty_of_plus")
	if err != nil {
		return nil, err
	}

	c := &Closure{
		classAncestors:    make(map[string][]string),
		propertyAncestors: make(map[string][]string),
	}
	for _, pair := range classPairs {
		sub, super := mangleToClass[pair[0]], mangleToClass[pair[1]]
		c.classAncestors[sub] = append(c.classAncestors[sub], super)
	}
	for _, pair := range propPairs {
		sub, super := mangleToProperty[pair[0]], mangleToProperty[pair[1]]
		c.propertyAncestors[sub] = append(c.propertyAncestors[sub], super)
	}
	return c, nil
}

// Apply runs one monotonic taxonomic-closure pass over store: for every
// `X type A` fact where A has ancestor B, it asserts `X type B`; similarly
// for every `s p o` fact where predicate p has ancestor property q, it
// asserts `s q o`. Calling Apply repeatedly is safe — the pipeline calls it
// once before the rule engine starts, and the rule engine's fixed-point
// driver (spec section 4.6) calls it again at the start of every iteration.
func (c *Closure) Apply(store *factstore.Store) {
	typePred := model.ID(vocab.PredType)
	for class, ancestors := range c.classAncestors {
		classTerm := model.ID(vocab.ClassIRI(class))
		for _, subject := range store.Subjects(typePred, classTerm) {
			for _, ancestor := range ancestors {
				store.Add(model.NewFact(subject, typePred, model.ID(vocab.ClassIRI(ancestor))))
			}
		}
	}
	for prop, ancestors := range c.propertyAncestors {
		propTerm := model.ID(vocab.PropIRI(prop))
		for _, f := range store.SubjectObjects(propTerm) {
			for _, ancestor := range ancestors {
				store.Add(model.NewFact(f.Subject, model.ID(vocab.PropIRI(ancestor)), f.Object))
			}
		}
	}
}
