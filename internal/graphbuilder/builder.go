// Package graphbuilder implements the Graph Builder (spec section 4.4): it
// translates the Document Ingestor's parsed tree into facts, including the
// replication of constructs shared across more than one scenario and the
// cross-scenario edge cleanup pass that follows it.
package graphbuilder

import (
	"sort"
	"strings"

	"laderr/internal/factstore"
	"laderr/internal/ingest"
	"laderr/internal/model"
	"laderr/internal/vocab"
)

// uriProps are construct properties whose value is an identifier reference
// to a sibling construct rather than a literal, matching the original
// implementation's uri_props set (graph.py: _process_instance).
var uriProps = map[string]bool{
	"disables":        true,
	"exploits":        true,
	"exposes":         true,
	"capabilities":    true,
	"vulnerabilities": true,
}

// dispositionKinds is the set Graph Builder step 6's cleanup pass applies
// to — all three Disposition sub-kinds per SPEC_FULL.md C.4 point 3, not
// just Capability as in the original implementation.
var dispositionKinds = map[string]bool{
	vocab.ClassCapability:    true,
	vocab.ClassVulnerability: true,
	vocab.ClassResilience:    true,
}

// mergedConstruct groups every ingest.Construct sharing the same
// identifier (the same instance id declared in more than one scenario
// section collapses onto one node, as in the original implementation).
type mergedConstruct struct {
	ID          string
	Kind        string
	Properties  map[string]interface{}
	ScenarioIDs []string
}

// Build translates doc into a fresh Fact Store holding the Specification,
// Scenario, and construct facts spec section 4.4 describes. It does not
// load the schema vocabulary (spec section 4.3); callers add
// vocab.SchemaFacts() separately, once per run.
func Build(doc *ingest.Document) *factstore.Store {
	store := factstore.New()
	baseURI := doc.Metadata.BaseURI
	store.BindPrefix("", baseURI)
	store.BindPrefix("laderr", vocab.NS)

	specID := model.ID(baseURI + "Specification")
	store.Add(model.NewFact(specID, model.ID(vocab.PredType), model.ID(vocab.ClassIRI(vocab.ClassSpecification))))
	addMetadataFacts(store, specID, doc.Metadata)

	scenarioNode := make(map[string]model.Term, len(doc.Scenarios))
	for _, sc := range doc.Scenarios {
		node := model.ID(baseURI + sc.ID)
		scenarioNode[sc.ID] = node
		store.Add(model.NewFact(node, model.ID(vocab.PredType), model.ID(vocab.ClassIRI(vocab.ClassScenario))))
		store.Add(model.NewFact(node, model.ID(vocab.PredLabel), model.String(sc.Label)))
		if sc.Situation != "" {
			store.Add(model.NewFact(node, model.ID(vocab.PropIRI(vocab.PropSituation)), model.ID(vocab.NS+sc.Situation)))
		}
		if sc.Status != "" {
			store.Add(model.NewFact(node, model.ID(vocab.PropIRI(vocab.PropStatus)), model.ID(vocab.NS+sc.Status)))
		}
		store.Add(model.NewFact(specID, model.ID(vocab.PropIRI(vocab.PropConstructs)), node))
	}

	groups := mergeConstructs(doc.Constructs)

	for _, g := range groups {
		node := model.ID(baseURI + g.ID)
		addConstructFacts(store, baseURI, node, g)
		store.Add(model.NewFact(specID, model.ID(vocab.PropIRI(vocab.PropConstructs)), node))
		for _, scenarioID := range g.ScenarioIDs {
			if scNode, ok := scenarioNode[scenarioID]; ok {
				store.Add(model.NewFact(scNode, model.ID(vocab.PropIRI(vocab.PropComponents)), node))
			}
		}
	}

	replicateSharedConstructs(store, baseURI, groups)
	cleanupCrossScenarioEdges(store, baseURI, groups)

	return store
}

func mergeConstructs(constructs []ingest.Construct) []*mergedConstruct {
	index := make(map[string]*mergedConstruct)
	var order []string
	for _, c := range constructs {
		existing, ok := index[c.ID]
		if !ok {
			merged := &mergedConstruct{ID: c.ID, Kind: c.Kind, Properties: map[string]interface{}{}}
			for k, v := range c.Properties {
				merged.Properties[k] = v
			}
			merged.ScenarioIDs = appendUnique(nil, c.ScenarioIDs)
			index[c.ID] = merged
			order = append(order, c.ID)
			continue
		}
		for k, v := range c.Properties {
			existing.Properties[k] = v
		}
		existing.ScenarioIDs = appendUnique(existing.ScenarioIDs, c.ScenarioIDs)
	}
	sort.Strings(order)
	out := make([]*mergedConstruct, 0, len(order))
	for _, id := range order {
		out = append(out, index[id])
	}
	return out
}

func appendUnique(existing []string, more []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		seen[s] = struct{}{}
	}
	out := append([]string{}, existing...)
	for _, s := range more {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func addMetadataFacts(store *factstore.Store, specID model.Term, meta ingest.Metadata) {
	if meta.Title != "" {
		store.Add(model.NewFact(specID, model.ID(vocab.PropIRI(vocab.PropTitle)), model.String(meta.Title)))
	}
	if meta.Version != "" {
		store.Add(model.NewFact(specID, model.ID(vocab.PropIRI(vocab.PropVersion)), model.String(meta.Version)))
	}
	if meta.CreatedOn != "" {
		store.Add(model.NewFact(specID, model.ID(vocab.PropIRI(vocab.PropCreatedOn)), model.DateTime(meta.CreatedOn)))
	}
	if meta.ModifiedOn != "" {
		store.Add(model.NewFact(specID, model.ID(vocab.PropIRI(vocab.PropModifiedOn)), model.DateTime(meta.ModifiedOn)))
	}
	store.Add(model.NewFact(specID, model.ID(vocab.PropIRI(vocab.PropBaseURI)), model.AnyURI(meta.BaseURI)))
	for _, by := range meta.CreatedBy {
		store.Add(model.NewFact(specID, model.ID(vocab.PropIRI(vocab.PropCreatedBy)), model.String(by)))
	}
}

func addConstructFacts(store *factstore.Store, baseURI string, node model.Term, g *mergedConstruct) {
	store.Add(model.NewFact(node, model.ID(vocab.PredType), model.ID(vocab.ClassIRI(g.Kind))))

	for prop, value := range g.Properties {
		switch prop {
		case "id", "scenarios":
			continue
		case "label":
			if s, ok := value.(string); ok {
				store.Add(model.NewFact(node, model.ID(vocab.PredLabel), model.String(s)))
			}
			continue
		case "state":
			if s, ok := value.(string); ok {
				store.Add(model.NewFact(node, model.ID(vocab.PropIRI(vocab.PropState)), model.ID(vocab.NS+s)))
			}
			continue
		}

		propURI := model.ID(vocab.PropIRI(prop))
		switch v := value.(type) {
		case []interface{}:
			for _, item := range v {
				addScalarFact(store, baseURI, node, propURI, prop, item)
			}
		default:
			addScalarFact(store, baseURI, node, propURI, prop, value)
		}
	}
}

func addScalarFact(store *factstore.Store, baseURI string, node model.Term, propURI model.Term, prop string, value interface{}) {
	switch v := value.(type) {
	case string:
		if uriProps[prop] {
			store.Add(model.NewFact(node, propURI, model.ID(baseURI+v)))
		} else {
			store.Add(model.NewFact(node, propURI, model.String(v)))
		}
	case bool:
		store.Add(model.NewFact(node, propURI, model.Bool(v)))
	}
}

// replicateSharedConstructs implements Graph Builder step 5: any construct
// whose node is a `components` member of more than one scenario is removed
// in its shared form and re-created once per scenario, with nested shared
// references rewritten to the matching scenario's replica.
func replicateSharedConstructs(store *factstore.Store, baseURI string, groups []*mergedConstruct) {
	nodeScenarios := make(map[model.Term][]string, len(groups))
	nodeOf := make(map[model.Term]*mergedConstruct, len(groups))
	for _, g := range groups {
		node := model.ID(baseURI + g.ID)
		nodeScenarios[node] = g.ScenarioIDs
		nodeOf[node] = g
	}

	var shared []model.Term
	for node, scenarios := range nodeScenarios {
		if len(scenarios) > 1 {
			shared = append(shared, node)
		}
	}
	if len(shared) == 0 {
		return
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i].Less(shared[j]) })
	sharedSet := make(map[model.Term]bool, len(shared))
	for _, s := range shared {
		sharedSet[s] = true
	}

	outgoing := make(map[model.Term][]model.Fact, len(shared))
	incoming := make(map[model.Term][]model.Fact, len(shared))
	var toRemove []model.Fact
	for _, node := range shared {
		out := store.Triples(factstore.Pattern{Subject: &node})
		outgoing[node] = out
		toRemove = append(toRemove, out...)
		in := store.Triples(factstore.Pattern{Object: &node})
		incoming[node] = in
		toRemove = append(toRemove, in...)
	}
	store.RemoveAll(toRemove)

	componentsPred := model.ID(vocab.PropIRI(vocab.PropComponents))

	for _, node := range shared {
		scenarios := nodeScenarios[node]
		for _, scenarioID := range scenarios {
			replica := model.ID(node.Value() + "_" + scenarioID)
			scenarioNode := model.ID(baseURI + scenarioID)
			store.Add(model.NewFact(scenarioNode, componentsPred, replica))

			for _, f := range outgoing[node] {
				if f.Predicate == componentsPred {
					continue // already handled via the scenario.components fact above
				}
				obj := f.Object
				if sharedSet[obj] && containsString(nodeScenarios[obj], scenarioID) {
					obj = model.ID(obj.Value() + "_" + scenarioID)
				}
				store.Add(model.NewFact(replica, f.Predicate, obj))
			}

			for _, f := range incoming[node] {
				if f.Predicate == componentsPred {
					continue
				}
				subj := f.Subject
				if sharedSet[subj] && containsString(nodeScenarios[subj], scenarioID) {
					subj = model.ID(subj.Value() + "_" + scenarioID)
				}
				store.Add(model.NewFact(subj, f.Predicate, replica))
			}
		}
	}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// cleanupCrossScenarioEdges implements Graph Builder step 6, extended per
// SPEC_FULL.md C.4 point 3 to every Disposition sub-kind: for every
// non-replicated Disposition node, drop outgoing references whose object
// carries a scenario suffix that does not match the source's own scenario.
func cleanupCrossScenarioEdges(store *factstore.Store, baseURI string, groups []*mergedConstruct) {
	var scenarioIDs []string
	for _, g := range groups {
		scenarioIDs = append(scenarioIDs, g.ScenarioIDs...)
	}
	scenarioIDs = appendUnique(nil, scenarioIDs)

	for _, g := range groups {
		if !dispositionKinds[g.Kind] {
			continue
		}
		if len(g.ScenarioIDs) != 1 {
			continue // shared constructs were already replaced by their replicas
		}
		node := model.ID(baseURI + g.ID)
		own := g.ScenarioIDs[0]
		var toRemove []model.Fact
		for _, f := range store.Triples(factstore.Pattern{Subject: &node}) {
			if !f.Object.IsIdentifier() {
				continue
			}
			if belongsToOtherScenario(f.Object.Value(), own, scenarioIDs) {
				toRemove = append(toRemove, f)
			}
		}
		store.RemoveAll(toRemove)
	}
}

func belongsToOtherScenario(objectIRI, ownScenario string, scenarioIDs []string) bool {
	ownSuffix := "_" + ownScenario
	if strings.HasSuffix(objectIRI, ownSuffix) {
		return false
	}
	for _, sid := range scenarioIDs {
		if sid == ownScenario {
			continue
		}
		if strings.HasSuffix(objectIRI, "_"+sid) {
			return true
		}
	}
	return false
}
