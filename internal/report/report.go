// Package report implements the reduced report adapter SPEC_FULL.md
// section C.2 describes: a structured, per-scenario summary derived from
// the Scenario Splitter's sub-stores. It emits Go structs, never rendered
// bytes — the PDF/Graphviz rendering stays out of core per spec section 1.
package report

import (
	"sort"

	"laderr/internal/factstore"
	"laderr/internal/model"
	"laderr/internal/vocab"
)

// Disposition summarizes a Capability or Vulnerability's final state.
type Disposition struct {
	ID    string
	Label string
	State string
}

// Resilience summarizes a synthesized Resilience node (spec section 4.6,
// R5).
type Resilience struct {
	ID               string
	Label            string
	State            string
	Preserves        string
	PreservesAgainst string
	PreservesDespite string
	SustainedBy      []string
}

// Entity summarizes one Entity construct and its derived relations.
type Entity struct {
	ID                string
	Label             string
	Kind              string
	Capabilities      []Disposition
	Vulnerabilities   []Disposition
	Protects          []string
	Threatens         []string
	Inhibits          []string
	SucceededToDamage []string
	FailedToDamage    []string
}

// Scenario is the full per-scenario summary.
type Scenario struct {
	ID          string
	Label       string
	Situation   string
	Status      string
	Entities    []Entity
	Resiliences []Resilience
}

var (
	typePred             = model.ID(vocab.PredType)
	labelPred            = model.ID(vocab.PredLabel)
	situationPred        = model.ID(vocab.PropIRI(vocab.PropSituation))
	statusPred           = model.ID(vocab.PropIRI(vocab.PropStatus))
	capabilitiesPred     = model.ID(vocab.PropIRI(vocab.PropCapabilities))
	vulnerabilitiesPred  = model.ID(vocab.PropIRI(vocab.PropVulnerabilities))
	resiliencesPred      = model.ID(vocab.PropIRI(vocab.PropResiliences))
	statePred            = model.ID(vocab.PropIRI(vocab.PropState))
	protectsPred         = model.ID(vocab.PropIRI(vocab.PropProtects))
	threatensPred        = model.ID(vocab.PropIRI(vocab.PropThreatens))
	inhibitsPred         = model.ID(vocab.PropIRI(vocab.PropInhibits))
	succeededPred        = model.ID(vocab.PropIRI(vocab.PropSucceededToDamage))
	failedPred           = model.ID(vocab.PropIRI(vocab.PropFailedToDamage))
	preservesPred        = model.ID(vocab.PropIRI(vocab.PropPreserves))
	preservesAgainstPred = model.ID(vocab.PropIRI(vocab.PropPreservesAgainst))
	preservesDespitePred = model.ID(vocab.PropIRI(vocab.PropPreservesDespite))
	sustainsPred         = model.ID(vocab.PropIRI(vocab.PropSustains))

	scenarioClass   = model.ID(vocab.ClassIRI(vocab.ClassScenario))
	resilienceClass = model.ID(vocab.ClassIRI(vocab.ClassResilience))
)

// entityLeafClasses is checked most-specific-first so an Entity typed
// through taxonomic closure as both (say) Asset and Entity reports its
// leaf kind, not the abstract superclass.
var entityLeafClasses = []string{
	vocab.ClassAsset, vocab.ClassThreat, vocab.ClassControl, vocab.ClassUnclassified, vocab.ClassEntity,
}

// Build produces one Scenario summary per sub-store, keyed the same way
// splitter.Split keys its result.
func Build(byScenario map[string]*factstore.Store) map[string]*Scenario {
	out := make(map[string]*Scenario, len(byScenario))
	for id, store := range byScenario {
		out[id] = buildScenario(id, store)
	}
	return out
}

func buildScenario(id string, store *factstore.Store) *Scenario {
	sc := &Scenario{ID: id}
	scNodes := store.Subjects(typePred, scenarioClass)
	if len(scNodes) > 0 {
		node := scNodes[0]
		sc.Label = labelOf(store, node)
		sc.Situation = localName(firstObject(store, node, situationPred))
		sc.Status = localName(firstObject(store, node, statusPred))
	}

	entityOwners := make(map[model.Term]bool)
	for _, f := range store.Triples(factstore.Pattern{Predicate: &capabilitiesPred}) {
		entityOwners[f.Subject] = true
	}
	for _, f := range store.Triples(factstore.Pattern{Predicate: &vulnerabilitiesPred}) {
		entityOwners[f.Subject] = true
	}

	var entityIDs []model.Term
	for e := range entityOwners {
		entityIDs = append(entityIDs, e)
	}
	sort.Slice(entityIDs, func(i, j int) bool { return entityIDs[i].Less(entityIDs[j]) })

	for _, e := range entityIDs {
		sc.Entities = append(sc.Entities, buildEntity(store, e))
	}

	for _, r := range store.Subjects(typePred, resilienceClass) {
		sc.Resiliences = append(sc.Resiliences, buildResilience(store, r))
	}

	return sc
}

func buildEntity(store *factstore.Store, e model.Term) Entity {
	ent := Entity{ID: e.Value(), Label: labelOf(store, e), Kind: leafEntityKind(store, e)}
	for _, c := range store.Objects(e, capabilitiesPred) {
		ent.Capabilities = append(ent.Capabilities, buildDisposition(store, c))
	}
	for _, v := range store.Objects(e, vulnerabilitiesPred) {
		ent.Vulnerabilities = append(ent.Vulnerabilities, buildDisposition(store, v))
	}
	for _, o := range store.Objects(e, protectsPred) {
		ent.Protects = append(ent.Protects, o.Value())
	}
	for _, o := range store.Objects(e, threatensPred) {
		ent.Threatens = append(ent.Threatens, o.Value())
	}
	for _, o := range store.Objects(e, inhibitsPred) {
		ent.Inhibits = append(ent.Inhibits, o.Value())
	}
	for _, o := range store.Objects(e, succeededPred) {
		ent.SucceededToDamage = append(ent.SucceededToDamage, o.Value())
	}
	for _, o := range store.Objects(e, failedPred) {
		ent.FailedToDamage = append(ent.FailedToDamage, o.Value())
	}
	return ent
}

func buildDisposition(store *factstore.Store, d model.Term) Disposition {
	return Disposition{ID: d.Value(), Label: labelOf(store, d), State: localName(firstObject(store, d, statePred))}
}

func buildResilience(store *factstore.Store, r model.Term) Resilience {
	res := Resilience{
		ID:               r.Value(),
		Label:            labelOf(store, r),
		State:            localName(firstObject(store, r, statePred)),
		Preserves:        firstObject(store, r, preservesPred),
		PreservesAgainst: firstObject(store, r, preservesAgainstPred),
		PreservesDespite: firstObject(store, r, preservesDespitePred),
	}
	for _, s := range store.Subjects(sustainsPred, r) {
		res.SustainedBy = append(res.SustainedBy, s.Value())
	}
	return res
}

func leafEntityKind(store *factstore.Store, e model.Term) string {
	for _, kind := range entityLeafClasses {
		if store.Contains(model.NewFact(e, typePred, model.ID(vocab.ClassIRI(kind)))) {
			return kind
		}
	}
	return vocab.ClassUnclassified
}

func labelOf(store *factstore.Store, node model.Term) string {
	if l := firstObject(store, node, labelPred); l != "" {
		return l
	}
	return node.Value()
}

func firstObject(store *factstore.Store, node model.Term, pred model.Term) string {
	objs := store.Objects(node, pred)
	if len(objs) == 0 {
		return ""
	}
	return objs[0].Value()
}

func localName(iri string) string {
	for i := len(iri) - 1; i >= 0; i-- {
		if iri[i] == '#' || iri[i] == '/' {
			return iri[i+1:]
		}
	}
	return iri
}
