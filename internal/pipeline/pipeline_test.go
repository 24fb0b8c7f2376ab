package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"laderr/internal/closure"
	"laderr/internal/model"
	"laderr/internal/rules"
	"laderr/internal/vocab"
)

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp doc: %v", err)
	}
	return path
}

func id(local string) model.Term { return model.ID("https://laderr.example/#" + local) }

// TestPipelineRunS1ThroughDocument grounds spec section 8's S1 concrete
// scenario, exercising the Protects rule (R2) through the document surface
// the way a real caller would.
func TestPipelineRunS1ThroughDocument(t *testing.T) {
	path := writeDoc(t, `
title = "S1"

[Scenario.s1]
situation = "operational"

[s1.Entity.A]
capabilities = ["cA"]

[s1.Entity.B]
vulnerabilities = ["vB"]

[s1.Capability.cA]
disables = "vB"

[s1.Vulnerability.vB]
`)
	res, err := Run(path, Options{Reason: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	store := res.Store
	a, b := id("A"), id("B")
	protects := model.ID(vocab.PropIRI(vocab.PropProtects))
	if !store.Contains(model.NewFact(a, protects, b)) {
		t.Fatal("expected A protects B")
	}
	status := model.ID(vocab.PropIRI(vocab.PropStatus))
	s1 := id("s1")
	if got := store.Objects(s1, status); len(got) != 1 || got[0] != model.ID(vocab.NS+vocab.StatusOperational) {
		t.Fatalf("expected scenario status operational, got %v", got)
	}
	resilienceClass := model.ID(vocab.ClassIRI(vocab.ClassResilience))
	if subs := store.Subjects(model.ID(vocab.PredType), resilienceClass); len(subs) != 0 {
		t.Fatalf("expected no Resilience synthesized, got %v", subs)
	}
}

// TestPipelineRunS2ThreatensAndVulnerable grounds S2: cA exploits vB makes
// A threaten B and flips the operational scenario's status to vulnerable.
func TestPipelineRunS2ThreatensAndVulnerable(t *testing.T) {
	path := writeDoc(t, `
title = "S2"

[Scenario.s1]
situation = "operational"

[s1.Entity.A]
capabilities = ["cA"]

[s1.Entity.B]
vulnerabilities = ["vB"]

[s1.Capability.cA]
exploits = "vB"

[s1.Vulnerability.vB]
`)
	res, err := Run(path, Options{Reason: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	store := res.Store
	a, b := id("A"), id("B")
	threatens := model.ID(vocab.PropIRI(vocab.PropThreatens))
	if !store.Contains(model.NewFact(a, threatens, b)) {
		t.Fatal("expected A threatens B")
	}
	status := model.ID(vocab.PropIRI(vocab.PropStatus))
	s1 := id("s1")
	if got := store.Objects(s1, status); len(got) != 1 || got[0] != model.ID(vocab.NS+vocab.StatusVulnerable) {
		t.Fatalf("expected scenario status vulnerable, got %v", got)
	}
}

// TestPipelineRunS3Resilience grounds S3: a three-entity resilience chain
// synthesizes exactly one Resilience node with the expected edges.
func TestPipelineRunS3Resilience(t *testing.T) {
	path := writeDoc(t, `
title = "S3"

[Scenario.s1]
situation = "operational"

[s1.Entity.A]
capabilities = ["cA"]
vulnerabilities = ["vA"]

[s1.Entity.B]
capabilities = ["cB"]

[s1.Entity.C]
capabilities = ["cC"]

[s1.Capability.cA]

[s1.Capability.cB]
disables = "vA"

[s1.Capability.cC]
exploits = "vA"

[s1.Vulnerability.vA]
exposes = "cA"
`)
	res, err := Run(path, Options{Reason: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	store := res.Store
	resilienceClass := model.ID(vocab.ClassIRI(vocab.ClassResilience))
	rNodes := store.Subjects(model.ID(vocab.PredType), resilienceClass)
	if len(rNodes) != 1 {
		t.Fatalf("expected exactly one Resilience node, got %d: %v", len(rNodes), rNodes)
	}
	r := rNodes[0]

	a := id("A")
	resiliencesPred := model.ID(vocab.PropIRI(vocab.PropResiliences))
	if !store.Contains(model.NewFact(a, resiliencesPred, r)) {
		t.Fatal("expected A.resiliences -> R")
	}
	preserves := model.ID(vocab.PropIRI(vocab.PropPreserves))
	if !store.Contains(model.NewFact(r, preserves, id("cA"))) {
		t.Fatal("expected R.preserves cA")
	}
	preservesAgainst := model.ID(vocab.PropIRI(vocab.PropPreservesAgainst))
	if !store.Contains(model.NewFact(r, preservesAgainst, id("cC"))) {
		t.Fatal("expected R.preservesAgainst cC")
	}
	preservesDespite := model.ID(vocab.PropIRI(vocab.PropPreservesDespite))
	if !store.Contains(model.NewFact(r, preservesDespite, id("vA"))) {
		t.Fatal("expected R.preservesDespite vA")
	}
	sustains := model.ID(vocab.PropIRI(vocab.PropSustains))
	if !store.Contains(model.NewFact(id("cB"), sustains, r)) {
		t.Fatal("expected cB.sustains R")
	}

	statePred := model.ID(vocab.PropIRI(vocab.PropState))
	if got := store.Objects(id("vA"), statePred); len(got) != 1 || got[0] != model.ID(vocab.NS+vocab.StateDisabled) {
		t.Fatalf("expected vA disabled after R1, got %v", got)
	}
	if got := store.Objects(id("cB"), statePred); len(got) != 1 || got[0] != model.ID(vocab.NS+vocab.StateEnabled) {
		t.Fatalf("expected cB enabled after R1, got %v", got)
	}
}

// TestPipelineRunS4SucceededToDamage grounds S4: an incident scenario with
// an enabled, exploited, exposed vulnerability yields succeededToDamage and
// notResilient, which a subsequent R8 pass never overwrites.
func TestPipelineRunS4SucceededToDamage(t *testing.T) {
	path := writeDoc(t, `
title = "S4"

[Scenario.s1]
situation = "incident"

[s1.Entity.A]
capabilities = ["cA"]
vulnerabilities = ["vA"]

[s1.Entity.B]
capabilities = ["cB"]

[s1.Capability.cA]

[s1.Capability.cB]
exploits = "vA"

[s1.Vulnerability.vA]
exposes = "cA"
`)
	res, err := Run(path, Options{Reason: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	store := res.Store
	succeeded := model.ID(vocab.PropIRI(vocab.PropSucceededToDamage))
	if !store.Contains(model.NewFact(id("B"), succeeded, id("A"))) {
		t.Fatal("expected B succeededToDamage A")
	}
	status := model.ID(vocab.PropIRI(vocab.PropStatus))
	if got := store.Objects(id("s1"), status); len(got) != 1 || got[0] != model.ID(vocab.NS+vocab.StatusNotResilient) {
		t.Fatalf("expected scenario status notResilient, got %v", got)
	}
}

// TestPipelineRunS5FailedToDamage grounds S5: same shape as S4 but with the
// vulnerability disabled, so the scenario resolves to resilient instead.
func TestPipelineRunS5FailedToDamage(t *testing.T) {
	path := writeDoc(t, `
title = "S5"

[Scenario.s1]
situation = "incident"

[s1.Entity.A]
capabilities = ["cA"]
vulnerabilities = ["vA"]

[s1.Entity.B]
capabilities = ["cB"]

[s1.Capability.cA]

[s1.Capability.cB]
exploits = "vA"

[s1.Vulnerability.vA]
exposes = "cA"
state = "disabled"
`)
	res, err := Run(path, Options{Reason: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	store := res.Store
	failed := model.ID(vocab.PropIRI(vocab.PropFailedToDamage))
	if !store.Contains(model.NewFact(id("B"), failed, id("A"))) {
		t.Fatal("expected B failedToDamage A")
	}
	status := model.ID(vocab.PropIRI(vocab.PropStatus))
	if got := store.Objects(id("s1"), status); len(got) != 1 || got[0] != model.ID(vocab.NS+vocab.StatusResilient) {
		t.Fatalf("expected scenario status resilient, got %v", got)
	}
}

// TestPipelineDeterminism grounds spec section 8 P1: two independent runs
// over the same document produce a byte-identical canonical serialization.
func TestPipelineDeterminism(t *testing.T) {
	path := writeDoc(t, `
title = "Determinism"

[Scenario.s1]
situation = "incident"

[s1.Entity.A]
capabilities = ["cA"]
vulnerabilities = ["vA"]

[s1.Entity.B]
capabilities = ["cB"]

[s1.Capability.cA]

[s1.Capability.cB]
exploits = "vA"

[s1.Vulnerability.vA]
exposes = "cA"
`)
	res1, err := Run(path, Options{Reason: true})
	if err != nil {
		t.Fatalf("Run 1: %v", err)
	}
	res2, err := Run(path, Options{Reason: true})
	if err != nil {
		t.Fatalf("Run 2: %v", err)
	}
	if res1.Store.ContentHash() != res2.Store.ContentHash() {
		t.Fatal("expected two independent runs to produce identical content hashes")
	}
}

// TestPipelineIdempotence grounds spec section 8 P2: after the pipeline
// reaches fixed point, an additional closure+rules pass leaves the store
// unchanged.
func TestPipelineIdempotence(t *testing.T) {
	path := writeDoc(t, `
title = "Idempotence"

[Scenario.s1]
situation = "operational"

[s1.Entity.A]
capabilities = ["cA"]

[s1.Entity.B]
vulnerabilities = ["vB"]

[s1.Capability.cA]
disables = "vB"

[s1.Vulnerability.vB]
`)
	res, err := Run(path, Options{Reason: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	before := res.Store.ContentHash()

	cl, err := closure.Compute()
	if err != nil {
		t.Fatalf("closure.Compute: %v", err)
	}
	cl.Apply(res.Store)
	if err := rules.New(cl, 64).Run(res.Store); err != nil {
		t.Fatalf("additional rules pass: %v", err)
	}
	if res.Store.ContentHash() != before {
		t.Fatal("expected an additional closure+rules pass to leave the fixed-point store unchanged")
	}
}
