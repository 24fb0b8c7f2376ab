// Package rules implements the Rule Engine (spec section 4.6): nine
// domain-specific derivation rules plus the Taxonomic Closure, driven to a
// fixed point by a content-hash convergence check.
package rules

import (
	"laderr/internal/factstore"
	"laderr/internal/model"
	"laderr/internal/vocab"
)

var (
	typePred             = model.ID(vocab.PredType)
	statePred            = model.ID(vocab.PropIRI(vocab.PropState))
	situationPred        = model.ID(vocab.PropIRI(vocab.PropSituation))
	statusPred           = model.ID(vocab.PropIRI(vocab.PropStatus))
	componentsPred       = model.ID(vocab.PropIRI(vocab.PropComponents))
	capabilitiesPred     = model.ID(vocab.PropIRI(vocab.PropCapabilities))
	vulnerabilitiesPred  = model.ID(vocab.PropIRI(vocab.PropVulnerabilities))
	resiliencesPred      = model.ID(vocab.PropIRI(vocab.PropResiliences))
	disablesPred         = model.ID(vocab.PropIRI(vocab.PropDisables))
	exploitsPred         = model.ID(vocab.PropIRI(vocab.PropExploits))
	exposesPred          = model.ID(vocab.PropIRI(vocab.PropExposes))
	preservesPred        = model.ID(vocab.PropIRI(vocab.PropPreserves))
	preservesAgainstPred = model.ID(vocab.PropIRI(vocab.PropPreservesAgainst))
	preservesDespitePred = model.ID(vocab.PropIRI(vocab.PropPreservesDespite))
	sustainsPred         = model.ID(vocab.PropIRI(vocab.PropSustains))
	protectsPred         = model.ID(vocab.PropIRI(vocab.PropProtects))
	threatensPred        = model.ID(vocab.PropIRI(vocab.PropThreatens))
	inhibitsPred         = model.ID(vocab.PropIRI(vocab.PropInhibits))
	succeededPred        = model.ID(vocab.PropIRI(vocab.PropSucceededToDamage))
	failedPred           = model.ID(vocab.PropIRI(vocab.PropFailedToDamage))
	labelPred            = model.ID(vocab.PredLabel)

	capabilityClass    = model.ID(vocab.ClassIRI(vocab.ClassCapability))
	vulnerabilityClass = model.ID(vocab.ClassIRI(vocab.ClassVulnerability))
	resilienceClass    = model.ID(vocab.ClassIRI(vocab.ClassResilience))
	scenarioClass      = model.ID(vocab.ClassIRI(vocab.ClassScenario))

	stateEnabled  = model.ID(vocab.NS + vocab.StateEnabled)
	stateDisabled = model.ID(vocab.NS + vocab.StateDisabled)
)

// stateOf returns the node's current state local name ("" when unset).
func stateOf(store *factstore.Store, node model.Term) string {
	objs := store.Objects(node, statePred)
	if len(objs) == 0 {
		return ""
	}
	if objs[0] == stateEnabled {
		return vocab.StateEnabled
	}
	if objs[0] == stateDisabled {
		return vocab.StateDisabled
	}
	return ""
}

func isEnabled(store *factstore.Store, node model.Term) bool {
	return stateOf(store, node) == vocab.StateEnabled
}

func isDisabled(store *factstore.Store, node model.Term) bool {
	return stateOf(store, node) == vocab.StateDisabled
}

// ownerOf finds the Entity owning a Capability/Vulnerability/Resilience via
// the respective capabilities/vulnerabilities/resiliences edge (invariant
// I2: ownership is always exactly one Entity per construct per scenario).
func ownerOf(store *factstore.Store, construct model.Term, pred model.Term) (model.Term, bool) {
	owners := store.Subjects(pred, construct)
	if len(owners) == 0 {
		return model.Term{}, false
	}
	return owners[0], true
}

func capabilityOwner(store *factstore.Store, c model.Term) (model.Term, bool) {
	return ownerOf(store, c, capabilitiesPred)
}

func vulnerabilityOwner(store *factstore.Store, v model.Term) (model.Term, bool) {
	return ownerOf(store, v, vulnerabilitiesPred)
}

func isType(store *factstore.Store, node, class model.Term) bool {
	return store.Contains(model.NewFact(node, typePred, class))
}

// setState ensures node.state = local, removing any prior conflicting
// state fact first (spec section 4.6, R1).
func setState(store *factstore.Store, node model.Term, local string) {
	want := stateEnabled
	if local == vocab.StateDisabled {
		want = stateDisabled
	}
	for _, existing := range store.Objects(node, statePred) {
		if existing != want {
			store.Remove(model.NewFact(node, statePred, existing))
		}
	}
	store.Add(model.NewFact(node, statePred, want))
}

// setStatus replaces any prior status fact on scenario with local (spec
// section 4.6: R8 "replaces, not augments" any previous status).
func setStatus(store *factstore.Store, scenario model.Term, local string) {
	want := model.ID(vocab.NS + local)
	for _, existing := range store.Objects(scenario, statusPred) {
		if existing != want {
			store.Remove(model.NewFact(scenario, statusPred, existing))
		}
	}
	store.Add(model.NewFact(scenario, statusPred, want))
}

func statusOf(store *factstore.Store, scenario model.Term) string {
	objs := store.Objects(scenario, statusPred)
	if len(objs) == 0 {
		return ""
	}
	local := objs[0].Value()
	if len(local) > len(vocab.NS) {
		return local[len(vocab.NS):]
	}
	return ""
}

func situationOf(store *factstore.Store, scenario model.Term) string {
	objs := store.Objects(scenario, situationPred)
	if len(objs) == 0 {
		return ""
	}
	local := objs[0].Value()
	if len(local) > len(vocab.NS) {
		return local[len(vocab.NS):]
	}
	return ""
}

// scenarios returns every Scenario node in the store together with the
// node set reachable via its `components` edges.
func scenarios(store *factstore.Store) map[model.Term][]model.Term {
	out := make(map[model.Term][]model.Term)
	for _, sc := range store.Subjects(typePred, scenarioClass) {
		out[sc] = store.Objects(sc, componentsPred)
	}
	return out
}
