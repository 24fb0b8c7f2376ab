package validate

import (
	"testing"

	"laderr/internal/factstore"
	"laderr/internal/model"
	"laderr/internal/vocab"
)

const base = "https://laderr.example/#"

func id(local string) model.Term { return model.ID(base + local) }

func TestValidateConformingStore(t *testing.T) {
	store := factstore.New()
	spec := id("Specification")
	store.Add(model.NewFact(spec, typePred, specificationClass))
	store.Add(model.NewFact(spec, baseURIPred, model.AnyURI(base)))

	sc := id("S1")
	store.Add(model.NewFact(sc, typePred, scenarioClass))
	store.Add(model.NewFact(sc, situationPred, model.ID(vocab.NS+vocab.SituationOperational)))

	a := id("A")
	store.Add(model.NewFact(a, typePred, entityClass))
	cA := id("cA")
	store.Add(model.NewFact(cA, typePred, capabilityClass))
	store.Add(model.NewFact(a, capabilitiesPred, cA))
	store.Add(model.NewFact(cA, statePred, model.ID(vocab.NS+vocab.StateEnabled)))

	b := id("B")
	store.Add(model.NewFact(b, typePred, entityClass))
	vB := id("vB")
	store.Add(model.NewFact(vB, typePred, vulnerabilityClass))
	store.Add(model.NewFact(b, vulnerabilitiesPred, vB))
	store.Add(model.NewFact(vB, statePred, model.ID(vocab.NS+vocab.StateEnabled)))

	conforms, report := Validate(store)
	if !conforms {
		t.Fatalf("expected conforms, got findings: %+v", report.Findings)
	}
}

func TestValidateMissingOwnershipViolates(t *testing.T) {
	store := factstore.New()
	cA := id("cA")
	store.Add(model.NewFact(cA, typePred, capabilityClass))
	store.Add(model.NewFact(cA, statePred, model.ID(vocab.NS+vocab.StateEnabled)))

	conforms, report := Validate(store)
	if conforms {
		t.Fatal("expected non-conformance: capability has no owner")
	}
	found := false
	for _, f := range report.Findings {
		if f.Shape == "CapabilityShape" && f.Severity == SeverityViolation {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a CapabilityShape violation, got %+v", report.Findings)
	}
}

func TestValidateControlWithoutRelationViolates(t *testing.T) {
	store := factstore.New()
	control := id("ctrl")
	store.Add(model.NewFact(control, typePred, controlClass))

	conforms, report := Validate(store)
	if conforms {
		t.Fatal("expected non-conformance: Control has no protects/inhibits")
	}
	found := false
	for _, f := range report.Findings {
		if f.Shape == "ControlShape" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a ControlShape finding, got %+v", report.Findings)
	}
}

func TestValidateThreatWithoutThreatensViolates(t *testing.T) {
	store := factstore.New()
	threat := id("threat")
	store.Add(model.NewFact(threat, typePred, threatClass))

	conforms, _ := Validate(store)
	if conforms {
		t.Fatal("expected non-conformance: Threat has no threatens relation")
	}
}

func TestValidateResilienceShapeRequiresAllRelations(t *testing.T) {
	store := factstore.New()
	r := id("R1")
	store.Add(model.NewFact(r, typePred, resilienceClass))
	store.Add(model.NewFact(r, statePred, model.ID(vocab.NS+vocab.StateEnabled)))

	conforms, report := Validate(store)
	if conforms {
		t.Fatal("expected non-conformance: Resilience is missing all its required relations")
	}
	if len(report.Findings) < 5 {
		t.Fatalf("expected at least 5 findings (preserves/preservesAgainst/preservesDespite/sustains/resiliences), got %d: %+v",
			len(report.Findings), report.Findings)
	}
}
