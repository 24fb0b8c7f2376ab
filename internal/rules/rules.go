package rules

import (
	"fmt"

	"laderr/internal/factstore"
	"laderr/internal/model"
	"laderr/internal/vocab"
)

// applyR1 implements R1 — Disabled-state propagation (spec section 4.6).
// For every d1 disables d2, ensures d1.state=enabled and d2.state=disabled,
// with incoming disables edges (the "disabled" requirement) dominating
// outgoing ones when a disposition is both (invariant I4's tie-break).
func applyR1(store *factstore.Store) {
	sources := make(map[model.Term]bool)
	targets := make(map[model.Term]bool)
	for _, f := range store.Triples(factstore.Pattern{Predicate: &disablesPred}) {
		sources[f.Subject] = true
		targets[f.Object] = true
	}
	for node := range sources {
		if targets[node] {
			continue // target wins the tie-break; handled below
		}
		setState(store, node, vocab.StateEnabled)
	}
	for node := range targets {
		setState(store, node, vocab.StateDisabled)
	}
}

// applyR2 implements R2 — Protects: o2 owns c, c disables v, o1 owns v ⇒
// o2 protects o1.
func applyR2(store *factstore.Store) {
	for _, f := range store.Triples(factstore.Pattern{Predicate: &disablesPred}) {
		c, v := f.Subject, f.Object
		if !isType(store, c, capabilityClass) || !isType(store, v, vulnerabilityClass) {
			continue
		}
		o2, ok := capabilityOwner(store, c)
		if !ok {
			continue
		}
		o1, ok := vulnerabilityOwner(store, v)
		if !ok {
			continue
		}
		store.Add(model.NewFact(o2, protectsPred, o1))
	}
}

// applyR3 implements R3 — Threatens: o2 owns c, c exploits v, o1 owns v ⇒
// o2 threatens o1.
func applyR3(store *factstore.Store) {
	for _, f := range store.Triples(factstore.Pattern{Predicate: &exploitsPred}) {
		c, v := f.Subject, f.Object
		o2, ok := capabilityOwner(store, c)
		if !ok {
			continue
		}
		o1, ok := vulnerabilityOwner(store, v)
		if !ok {
			continue
		}
		store.Add(model.NewFact(o2, threatensPred, o1))
	}
}

// applyR4 implements R4 — Inhibits: o2 owns c2 that disables v, o3 owns c3
// that exploits the same v, o2 ≠ o3 ⇒ o2 inhibits o3.
func applyR4(store *factstore.Store) {
	for _, dis := range store.Triples(factstore.Pattern{Predicate: &disablesPred}) {
		c2, v := dis.Subject, dis.Object
		o2, ok := capabilityOwner(store, c2)
		if !ok {
			continue
		}
		for _, c3 := range store.Subjects(exploitsPred, v) {
			o3, ok := capabilityOwner(store, c3)
			if !ok || o2 == o3 {
				continue
			}
			store.Add(model.NewFact(o2, inhibitsPred, o3))
		}
	}
}

// applyR5 implements R5 — Resilience synthesis. See spec section 4.6 for
// the full precondition; the synthesized node's identifier is a
// deterministic hash of the participant 5-tuple (resilience.go).
func applyR5(store *factstore.Store, baseURI string) {
	for _, v := range store.Subjects(typePred, vulnerabilityClass) {
		o1, ok := vulnerabilityOwner(store, v)
		if !ok {
			continue
		}
		for _, c1 := range store.Objects(v, exposesPred) {
			c1Owner, ok := capabilityOwner(store, c1)
			if !ok || c1Owner != o1 {
				continue
			}
			for _, c2 := range store.Subjects(disablesPred, v) {
				o2, ok := capabilityOwner(store, c2)
				if !ok || !isEnabled(store, c2) {
					continue
				}
				for _, c3 := range store.Subjects(exploitsPred, v) {
					o3, ok := capabilityOwner(store, c3)
					if !ok {
						continue
					}
					if o1 == o2 || o1 == o3 || o2 == o3 {
						continue
					}
					synthesizeResilience(store, baseURI, o1, c1, c2, c3, v)
				}
			}
		}
	}
}

func synthesizeResilience(store *factstore.Store, baseURI string, o1, c1, c2, c3, v model.Term) {
	r := resilienceID(baseURI, o1, c1, c2, c3, v)
	store.Add(model.NewFact(r, typePred, resilienceClass))
	store.Add(model.NewFact(o1, resiliencesPred, r))
	store.Add(model.NewFact(r, preservesPred, c1))
	store.Add(model.NewFact(r, preservesAgainstPred, c3))
	store.Add(model.NewFact(r, preservesDespitePred, v))
	store.Add(model.NewFact(c2, sustainsPred, r))
	store.Add(model.NewFact(r, statePred, stateEnabled))
	label := fmt.Sprintf("resilience of %s preserving %s against %s despite %s",
		localName(o1), localName(c1), localName(c3), localName(v))
	store.Add(model.NewFact(r, labelPred, model.String(label)))
}

func localName(t model.Term) string {
	v := t.Value()
	for i := len(v) - 1; i >= 0; i-- {
		if v[i] == '#' || v[i] == '/' {
			return v[i+1:]
		}
	}
	return v
}

// applyR6R7 implements R6 (Succeeded-to-damage) and R7 (Failed-to-damage),
// both scoped to incident scenarios (spec section 4.6).
func applyR6R7(store *factstore.Store, scenario model.Term, components []model.Term) {
	if situationOf(store, scenario) != vocab.SituationIncident {
		return
	}
	damaged := false
	for _, v1 := range components {
		if !isType(store, v1, vulnerabilityClass) {
			continue
		}
		o1, ok := vulnerabilityOwner(store, v1)
		if !ok {
			continue
		}
		for _, c1 := range store.Objects(v1, exposesPred) {
			if owner, ok := capabilityOwner(store, c1); !ok || owner != o1 {
				continue
			}
			for _, c2 := range store.Subjects(exploitsPred, v1) {
				if !isEnabled(store, c2) {
					continue
				}
				o2, ok := capabilityOwner(store, c2)
				if !ok {
					continue
				}
				switch stateOf(store, v1) {
				case vocab.StateEnabled:
					store.Add(model.NewFact(o2, succeededPred, o1))
					damaged = true
				case vocab.StateDisabled:
					store.Add(model.NewFact(o2, failedPred, o1))
				}
			}
		}
	}
	if damaged {
		setStatus(store, scenario, vocab.StatusNotResilient)
	}
}

// applyR8 implements R8 — Scenario resilient: for incident scenarios not
// already notResilient, if every vulnerability is disabled or unexploited,
// the scenario is resilient.
func applyR8(store *factstore.Store, scenario model.Term, components []model.Term) {
	if situationOf(store, scenario) != vocab.SituationIncident {
		return
	}
	if statusOf(store, scenario) == vocab.StatusNotResilient {
		return
	}
	for _, v := range components {
		if !isType(store, v, vulnerabilityClass) {
			continue
		}
		if isEnabled(store, v) && len(store.Subjects(exploitsPred, v)) > 0 {
			return
		}
	}
	setStatus(store, scenario, vocab.StatusResilient)
}

// applyR9 implements R9 — Scenario vulnerable: for operational scenarios,
// vulnerable if any enabled vulnerability is exploited, operational
// otherwise.
func applyR9(store *factstore.Store, scenario model.Term, components []model.Term) {
	if situationOf(store, scenario) != vocab.SituationOperational {
		return
	}
	for _, v := range components {
		if !isType(store, v, vulnerabilityClass) {
			continue
		}
		if isEnabled(store, v) && len(store.Subjects(exploitsPred, v)) > 0 {
			setStatus(store, scenario, vocab.StatusVulnerable)
			return
		}
	}
	setStatus(store, scenario, vocab.StatusOperational)
}
