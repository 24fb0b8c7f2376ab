// Package vocab describes the fixed LaDeRR vocabulary: class and property
// declarations, the class/property hierarchy, and the controlled
// vocabularies for state/situation/status (spec sections 4.3 and 6.4).
//
// The vocabulary never changes at runtime — there are no user-defined
// classes or rules (spec section 1) — so it is expressed as package-level
// data rather than something loaded from a file.
package vocab

import "laderr/internal/model"

// NS is the fixed LaDeRR namespace, carried over from the original
// implementation's RDF vocabulary (laderr_engine/laderr_lib/globals.py).
const NS = "https://w3id.org/laderr#"

// Schema-level predicates (not user data; used for type assertions and
// taxonomic closure bookkeeping).
const (
	PredType          = NS + "type"
	PredSubClassOf    = NS + "subClassOf"
	PredSubPropertyOf = NS + "subPropertyOf"
	PredLabel         = "http://www.w3.org/2000/01/rdf-schema#label"
)

// Class names, local to NS.
const (
	ClassSpecification = "Specification"
	ClassScenario      = "Scenario"
	ClassEntity        = "Entity"
	ClassAsset         = "Asset"
	ClassThreat        = "Threat"
	ClassControl       = "Control"
	ClassUnclassified  = "Unclassified"
	ClassDisposition   = "Disposition"
	ClassCapability    = "Capability"
	ClassVulnerability = "Vulnerability"
	ClassResilience    = "Resilience"
)

// ClassIRI returns the full IRI for a class local name.
func ClassIRI(local string) string { return NS + local }

// ClassHierarchy maps each subclass to its immediate superclass. Entity
// subtypes and Disposition subtypes are the only non-trivial subclass
// edges in this schema.
var ClassHierarchy = map[string]string{
	ClassAsset:         ClassEntity,
	ClassThreat:        ClassEntity,
	ClassControl:       ClassEntity,
	ClassUnclassified:  ClassEntity,
	ClassCapability:    ClassDisposition,
	ClassVulnerability: ClassDisposition,
	ClassResilience:    ClassDisposition,
}

// Data properties (relations between constructs), local to NS.
const (
	PropCapabilities      = "capabilities"
	PropVulnerabilities   = "vulnerabilities"
	PropResiliences       = "resiliences"
	PropDisables          = "disables"
	PropExploits          = "exploits"
	PropExposes           = "exposes"
	PropPreserves         = "preserves"
	PropPreservesAgainst  = "preservesAgainst"
	PropPreservesDespite  = "preservesDespite"
	PropSustains          = "sustains"
	PropProtects          = "protects"
	PropThreatens         = "threatens"
	PropInhibits          = "inhibits"
	PropSucceededToDamage = "succeededToDamage"
	PropFailedToDamage    = "failedToDamage"
	PropComponents        = "components"
	PropConstructs        = "constructs"
	PropState             = "state"
	PropSituation         = "situation"
	PropStatus            = "status"
	PropCreatedBy         = "createdBy"
	PropCreatedOn         = "createdOn"
	PropModifiedOn        = "modifiedOn"
	PropTitle             = "title"
	PropVersion           = "version"
	PropBaseURI           = "baseURI"
	PropScenarios         = "scenarios"
)

// PropertyHierarchy is empty in this fixed vocabulary (no property
// specializes another), but the taxonomic closure component still runs
// subPropertyOf closure for completeness and forward compatibility with
// future vocabulary revisions.
var PropertyHierarchy = map[string]string{}

// PropIRI returns the full IRI for a property local name.
func PropIRI(local string) string { return NS + local }

// Controlled vocabulary: state.
const (
	StateEnabled  = "enabled"
	StateDisabled = "disabled"
)

// Controlled vocabulary: situation.
const (
	SituationOperational = "operational"
	SituationIncident    = "incident"
)

// Controlled vocabulary: status.
const (
	StatusOperational  = "operational"
	StatusVulnerable   = "vulnerable"
	StatusResilient    = "resilient"
	StatusNotResilient = "notResilient"
)

// DispositionClasses lists the three leaf Disposition kinds (the kinds
// invariant I1, type exclusivity, ranges over).
var DispositionClasses = []string{ClassCapability, ClassVulnerability, ClassResilience}

// EntityClasses lists the orthogonal Entity subtypes recognized by the
// ingestor (spec section 6.1's <Kind> enumeration, Entity side).
var EntityClasses = []string{ClassEntity, ClassAsset, ClassThreat, ClassControl, ClassUnclassified}

// SchemaFacts returns the baseline facts the Schema Loader (spec section
// 4.3) asserts once per run: class declarations and the class hierarchy.
// It asserts no property declarations and no property domain/range facts.
func SchemaFacts() []model.Fact {
	var facts []model.Fact
	classTypeClass := model.ID(ClassIRI("Class"))
	for _, c := range []string{
		ClassSpecification, ClassScenario, ClassEntity, ClassAsset, ClassThreat,
		ClassControl, ClassUnclassified, ClassDisposition, ClassCapability,
		ClassVulnerability, ClassResilience,
	} {
		facts = append(facts, model.NewFact(model.ID(ClassIRI(c)), model.ID(PredType), classTypeClass))
	}
	for sub, super := range ClassHierarchy {
		facts = append(facts, model.NewFact(model.ID(ClassIRI(sub)), model.ID(PredSubClassOf), model.ID(ClassIRI(super))))
	}
	return facts
}
