package validate

import (
	"laderr/internal/factstore"
	"laderr/internal/model"
	"laderr/internal/vocab"
)

// shape is one target-class rule set (spec section 4.7): required
// properties with cardinality, value enumerations, and structural
// constraints. No shape applies a closed-world restriction: properties a
// shape does not mention are never reported. Grounded in
// original_source/tests/tests_schemas/*, one
// concrete shape per construct kind named in spec section 3.2
// (SPEC_FULL.md section C.3).
type shape struct {
	name  string
	class model.Term
	check func(store *factstore.Store, report *Report)
}

var shapes = []shape{
	specificationShape,
	scenarioShape,
	entityShape,
	capabilityShape,
	vulnerabilityShape,
	resilienceShape,
}

var (
	specificationClass = model.ID(vocab.ClassIRI(vocab.ClassSpecification))
	scenarioClass      = model.ID(vocab.ClassIRI(vocab.ClassScenario))
	entityClass        = model.ID(vocab.ClassIRI(vocab.ClassEntity))
	controlClass       = model.ID(vocab.ClassIRI(vocab.ClassControl))
	threatClass        = model.ID(vocab.ClassIRI(vocab.ClassThreat))
	capabilityClass    = model.ID(vocab.ClassIRI(vocab.ClassCapability))
	vulnerabilityClass = model.ID(vocab.ClassIRI(vocab.ClassVulnerability))
	resilienceClass    = model.ID(vocab.ClassIRI(vocab.ClassResilience))

	statePred            = model.ID(vocab.PropIRI(vocab.PropState))
	situationPred        = model.ID(vocab.PropIRI(vocab.PropSituation))
	statusPred           = model.ID(vocab.PropIRI(vocab.PropStatus))
	baseURIPred          = model.ID(vocab.PropIRI(vocab.PropBaseURI))
	capabilitiesPred     = model.ID(vocab.PropIRI(vocab.PropCapabilities))
	vulnerabilitiesPred  = model.ID(vocab.PropIRI(vocab.PropVulnerabilities))
	resiliencesPred      = model.ID(vocab.PropIRI(vocab.PropResiliences))
	preservesPred        = model.ID(vocab.PropIRI(vocab.PropPreserves))
	preservesAgainstPred = model.ID(vocab.PropIRI(vocab.PropPreservesAgainst))
	preservesDespitePred = model.ID(vocab.PropIRI(vocab.PropPreservesDespite))
	sustainsPred         = model.ID(vocab.PropIRI(vocab.PropSustains))
	protectsPred         = model.ID(vocab.PropIRI(vocab.PropProtects))
	threatensPred        = model.ID(vocab.PropIRI(vocab.PropThreatens))
	inhibitsPred         = model.ID(vocab.PropIRI(vocab.PropInhibits))
)

var stateEnum = map[string]bool{vocab.NS + vocab.StateEnabled: true, vocab.NS + vocab.StateDisabled: true}
var situationEnum = map[string]bool{vocab.NS + vocab.SituationOperational: true, vocab.NS + vocab.SituationIncident: true}
var statusEnum = map[string]bool{
	vocab.NS + vocab.StatusOperational:  true,
	vocab.NS + vocab.StatusVulnerable:   true,
	vocab.NS + vocab.StatusResilient:    true,
	vocab.NS + vocab.StatusNotResilient: true,
}

func checkEnum(store *factstore.Store, report *Report, shapeName string, node model.Term, pred model.Term, path string, enum map[string]bool, required bool) {
	objs := store.Objects(node, pred)
	if len(objs) == 0 {
		if required {
			report.add(shapeName, node.Value(), path, SeverityViolation, "missing required property %s", path)
		}
		return
	}
	if len(objs) > 1 {
		report.add(shapeName, node.Value(), path, SeverityViolation, "property %s must be single-valued, found %d", path, len(objs))
	}
	for _, o := range objs {
		if !enum[o.Value()] {
			report.add(shapeName, node.Value(), path, SeverityViolation, "property %s has value %q outside its controlled vocabulary", path, o.Value())
		}
	}
}

var specificationShape = shape{
	name:  "SpecificationShape",
	class: specificationClass,
	check: func(store *factstore.Store, report *Report) {
		for _, node := range store.Subjects(typePred, specificationClass) {
			objs := store.Objects(node, baseURIPred)
			if len(objs) == 0 {
				report.add("SpecificationShape", node.Value(), "baseURI", SeverityViolation, "Specification is missing required baseURI")
			} else if len(objs) > 1 {
				report.add("SpecificationShape", node.Value(), "baseURI", SeverityViolation, "baseURI must be single-valued")
			}
		}
	},
}

var scenarioShape = shape{
	name:  "ScenarioShape",
	class: scenarioClass,
	check: func(store *factstore.Store, report *Report) {
		for _, node := range store.Subjects(typePred, scenarioClass) {
			checkEnum(store, report, "ScenarioShape", node, situationPred, "situation", situationEnum, true)
			checkEnum(store, report, "ScenarioShape", node, statusPred, "status", statusEnum, false)
		}
	},
}

var entityShape = shape{
	name:  "EntityShape",
	class: entityClass,
	check: func(store *factstore.Store, report *Report) {
		for _, node := range store.Subjects(typePred, controlClass) {
			protects := store.Triples(factstore.Pattern{Subject: &node, Predicate: &protectsPred})
			inhibits := store.Triples(factstore.Pattern{Subject: &node, Predicate: &inhibitsPred})
			if len(protects)+len(inhibits) == 0 {
				report.add("ControlShape", node.Value(), "protects|inhibits", SeverityViolation,
					"Control must have at least one protects or inhibits relation")
			}
		}
		for _, node := range store.Subjects(typePred, threatClass) {
			threatens := store.Triples(factstore.Pattern{Subject: &node, Predicate: &threatensPred})
			if len(threatens) == 0 {
				report.add("ThreatShape", node.Value(), "threatens", SeverityViolation,
					"Threat must have at least one threatens relation")
			}
		}
	},
}

var capabilityShape = shape{
	name:  "CapabilityShape",
	class: capabilityClass,
	check: func(store *factstore.Store, report *Report) {
		for _, node := range store.Subjects(typePred, capabilityClass) {
			checkEnum(store, report, "CapabilityShape", node, statePred, "state", stateEnum, true)
			owners := store.Subjects(capabilitiesPred, node)
			if len(owners) != 1 {
				report.add("CapabilityShape", node.Value(), "capabilities", SeverityViolation,
					"Capability must be the object of exactly one capabilities edge, found %d", len(owners))
			}
		}
	},
}

var vulnerabilityShape = shape{
	name:  "VulnerabilityShape",
	class: vulnerabilityClass,
	check: func(store *factstore.Store, report *Report) {
		for _, node := range store.Subjects(typePred, vulnerabilityClass) {
			checkEnum(store, report, "VulnerabilityShape", node, statePred, "state", stateEnum, true)
			owners := store.Subjects(vulnerabilitiesPred, node)
			if len(owners) != 1 {
				report.add("VulnerabilityShape", node.Value(), "vulnerabilities", SeverityViolation,
					"Vulnerability must be the object of exactly one vulnerabilities edge, found %d", len(owners))
			}
		}
	},
}

var resilienceShape = shape{
	name:  "ResilienceShape",
	class: resilienceClass,
	check: func(store *factstore.Store, report *Report) {
		for _, node := range store.Subjects(typePred, resilienceClass) {
			checkEnum(store, report, "ResilienceShape", node, statePred, "state", stateEnum, true)

			requireOutgoing(store, report, node, preservesPred, "preserves")
			requireOutgoing(store, report, node, preservesAgainstPred, "preservesAgainst")
			requireOutgoing(store, report, node, preservesDespitePred, "preservesDespite")

			if len(store.Subjects(sustainsPred, node)) == 0 {
				report.add("ResilienceShape", node.Value(), "sustains", SeverityViolation,
					"Resilience must be the object of at least one sustains edge")
			}
			if len(store.Subjects(resiliencesPred, node)) == 0 {
				report.add("ResilienceShape", node.Value(), "resiliences", SeverityViolation,
					"Resilience must be the object of at least one resiliences edge")
			}
		}
	},
}

func requireOutgoing(store *factstore.Store, report *Report, node, pred model.Term, path string) {
	if len(store.Objects(node, pred)) == 0 {
		report.add("ResilienceShape", node.Value(), path, SeverityViolation, "Resilience must participate in %s", path)
	}
}
