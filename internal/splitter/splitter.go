// Package splitter implements the Scenario Splitter (spec section 4.8): it
// partitions the enriched Fact Store into one sub-store per Scenario for
// downstream reporting.
package splitter

import (
	"sort"

	"laderr/internal/factstore"
	"laderr/internal/logging"
	"laderr/internal/model"
	"laderr/internal/vocab"
)

var (
	typePred       = model.ID(vocab.PredType)
	componentsPred = model.ID(vocab.PropIRI(vocab.PropComponents))
	scenarioClass  = model.ID(vocab.ClassIRI(vocab.ClassScenario))
)

// Split returns one sub-store per Scenario node in store, keyed by the
// scenario's identifier (the bare local name, not the full IRI). Each
// sub-store holds the scenario node and its attributes, every fact whose
// subject is a `components` member, and every fact whose object is such a
// member (spec section 4.8). Namespace prefix bindings are preserved.
func Split(store *factstore.Store) map[string]*factstore.Store {
	timer := logging.StartTimer(logging.CategorySplit, "split")
	defer timer.Stop()

	out := make(map[string]*factstore.Store)
	for _, scenario := range store.Subjects(typePred, scenarioClass) {
		sub := factstore.New()
		for name, iri := range store.Prefixes() {
			sub.BindPrefix(name, iri)
		}

		for _, f := range store.PredicateObjects(scenario) {
			sub.Add(f)
		}

		members := store.Objects(scenario, componentsPred)
		memberSet := make(map[model.Term]bool, len(members))
		for _, m := range members {
			memberSet[m] = true
		}

		for _, m := range members {
			for _, f := range store.PredicateObjects(m) {
				sub.Add(f)
			}
			for _, f := range store.Triples(factstore.Pattern{Object: &m}) {
				sub.Add(f)
			}
		}

		id := localName(scenario.Value())
		out[id] = sub
		logging.SplitDebug("scenario %s: %d facts", id, sub.Len())
	}
	return out
}

// Keys returns the sorted scenario identifiers of a Split result, useful
// for deterministic iteration order in callers (report rendering,
// serialization to one file per scenario).
func Keys(byScenario map[string]*factstore.Store) []string {
	keys := make([]string, 0, len(byScenario))
	for k := range byScenario {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func localName(iri string) string {
	for i := len(iri) - 1; i >= 0; i-- {
		if iri[i] == '#' || iri[i] == '/' {
			return iri[i+1:]
		}
	}
	return iri
}
