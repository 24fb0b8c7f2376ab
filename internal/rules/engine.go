package rules

import (
	"laderr/internal/closure"
	"laderr/internal/factstore"
	"laderr/internal/logging"
	"laderr/internal/model"
)

// Engine drives the fixed-point loop spec section 4.6 describes: Taxonomic
// Closure, then the nine rules in their declared order, repeated until a
// full iteration leaves the Fact Store's content hash unchanged.
type Engine struct {
	Closure       *closure.Closure
	MaxIterations int
}

// New returns an Engine with the given closure precomputation and
// iteration cap (spec section 4.6 default: 64).
func New(cl *closure.Closure, maxIterations int) *Engine {
	return &Engine{Closure: cl, MaxIterations: maxIterations}
}

// Run iterates the rule engine to a fixed point over store, returning
// *model.NonConvergingError if the cap is exceeded.
func (e *Engine) Run(store *factstore.Store) error {
	baseURI := store.Prefixes()[""]
	prevHash := store.ContentHash()

	for i := 1; i <= e.MaxIterations; i++ {
		timer := logging.StartTimer(logging.CategoryRules, "iteration")
		before := store.All()

		e.Closure.Apply(store)
		applyR1(store)
		applyR2(store)
		applyR3(store)
		applyR4(store)
		applyR5(store, baseURI)

		for scenario, components := range scenarios(store) {
			applyR6R7(store, scenario, components)
			applyR8(store, scenario, components)
			applyR9(store, scenario, components)
		}

		hash := store.ContentHash()
		timer.Stop()
		logging.RulesDebug("iteration %d: hash=%s", i, hash)

		if hash == prevHash {
			logging.Rules("fixed point reached after %d iteration(s)", i)
			return nil
		}
		prevHash = hash

		if i == e.MaxIterations {
			after := store.All()
			return &model.NonConvergingError{MaxIterations: e.MaxIterations, LastDelta: delta(before, after)}
		}
	}
	return nil
}

// delta returns the facts present in after but not in before, plus those
// present in before but not after — the NonConvergingError's diagnostic
// payload (spec section 7).
func delta(before, after []model.Fact) []model.Fact {
	beforeSet := make(map[model.Fact]bool, len(before))
	for _, f := range before {
		beforeSet[f] = true
	}
	afterSet := make(map[model.Fact]bool, len(after))
	for _, f := range after {
		afterSet[f] = true
	}
	var out []model.Fact
	for _, f := range after {
		if !beforeSet[f] {
			out = append(out, f)
		}
	}
	for _, f := range before {
		if !afterSet[f] {
			out = append(out, f)
		}
	}
	return out
}
