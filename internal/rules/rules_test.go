package rules

import (
	"testing"

	"laderr/internal/closure"
	"laderr/internal/factstore"
	"laderr/internal/model"
	"laderr/internal/vocab"
)

const base = "https://laderr.example/#"

func id(local string) model.Term { return model.ID(base + local) }

func newStore(t *testing.T) *factstore.Store {
	t.Helper()
	store := factstore.New()
	store.BindPrefix("", base)
	return store
}

func addEntity(store *factstore.Store, name string) model.Term {
	e := id(name)
	store.Add(model.NewFact(e, model.ID(vocab.PredType), model.ID(vocab.ClassIRI(vocab.ClassEntity))))
	return e
}

func addCapability(store *factstore.Store, owner model.Term, name, state string) model.Term {
	c := id(name)
	store.Add(model.NewFact(c, model.ID(vocab.PredType), model.ID(vocab.ClassIRI(vocab.ClassCapability))))
	store.Add(model.NewFact(owner, model.ID(vocab.PropIRI(vocab.PropCapabilities)), c))
	store.Add(model.NewFact(c, model.ID(vocab.PropIRI(vocab.PropState)), model.ID(vocab.NS+state)))
	return c
}

func addVulnerability(store *factstore.Store, owner model.Term, name, state string) model.Term {
	v := id(name)
	store.Add(model.NewFact(v, model.ID(vocab.PredType), model.ID(vocab.ClassIRI(vocab.ClassVulnerability))))
	store.Add(model.NewFact(owner, model.ID(vocab.PropIRI(vocab.PropVulnerabilities)), v))
	store.Add(model.NewFact(v, model.ID(vocab.PropIRI(vocab.PropState)), model.ID(vocab.NS+state)))
	return v
}

func addScenario(store *factstore.Store, name, situation string, members ...model.Term) model.Term {
	sc := id(name)
	store.Add(model.NewFact(sc, model.ID(vocab.PredType), model.ID(vocab.ClassIRI(vocab.ClassScenario))))
	store.Add(model.NewFact(sc, model.ID(vocab.PropIRI(vocab.PropSituation)), model.ID(vocab.NS+situation)))
	for _, m := range members {
		store.Add(model.NewFact(sc, model.ID(vocab.PropIRI(vocab.PropComponents)), m))
	}
	return sc
}

func runEngine(t *testing.T, store *factstore.Store) {
	t.Helper()
	cl, err := closure.Compute()
	if err != nil {
		t.Fatalf("closure.Compute: %v", err)
	}
	if err := New(cl, 64).Run(store); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

// TestS1Protects grounds spec section 8's scenario S1.
func TestS1Protects(t *testing.T) {
	store := newStore(t)
	a := addEntity(store, "A")
	b := addEntity(store, "B")
	cA := addCapability(store, a, "cA", vocab.StateEnabled)
	vB := addVulnerability(store, b, "vB", vocab.StateEnabled)
	store.Add(model.NewFact(cA, model.ID(vocab.PropIRI(vocab.PropDisables)), vB))
	sc := addScenario(store, "S1", vocab.SituationOperational, a, b, cA, vB)

	runEngine(t, store)

	if !store.Contains(model.NewFact(a, protectsPred, b)) {
		t.Fatal("expected A protects B")
	}
	if statusOf(store, sc) != vocab.StatusOperational {
		t.Fatalf("expected operational status, got %q", statusOf(store, sc))
	}
	if len(store.Subjects(typePred, resilienceClass)) != 0 {
		t.Fatal("expected no Resilience synthesized")
	}
}

// TestS2ThreatensVulnerable grounds scenario S2.
func TestS2ThreatensVulnerable(t *testing.T) {
	store := newStore(t)
	a := addEntity(store, "A")
	b := addEntity(store, "B")
	cA := addCapability(store, a, "cA", vocab.StateEnabled)
	vB := addVulnerability(store, b, "vB", vocab.StateEnabled)
	store.Add(model.NewFact(cA, model.ID(vocab.PropIRI(vocab.PropExploits)), vB))
	sc := addScenario(store, "S2", vocab.SituationOperational, a, b, cA, vB)

	runEngine(t, store)

	if !store.Contains(model.NewFact(a, threatensPred, b)) {
		t.Fatal("expected A threatens B")
	}
	if statusOf(store, sc) != vocab.StatusVulnerable {
		t.Fatalf("expected vulnerable status, got %q", statusOf(store, sc))
	}
}

// TestS3ResilienceSynthesized grounds scenario S3.
func TestS3ResilienceSynthesized(t *testing.T) {
	store := newStore(t)
	a := addEntity(store, "A")
	b := addEntity(store, "B")
	c := addEntity(store, "C")
	cA := addCapability(store, a, "cA", vocab.StateEnabled)
	vA := addVulnerability(store, a, "vA", vocab.StateEnabled)
	cB := addCapability(store, b, "cB", vocab.StateEnabled)
	cC := addCapability(store, c, "cC", vocab.StateEnabled)
	store.Add(model.NewFact(vA, model.ID(vocab.PropIRI(vocab.PropExposes)), cA))
	store.Add(model.NewFact(cB, model.ID(vocab.PropIRI(vocab.PropDisables)), vA))
	store.Add(model.NewFact(cC, model.ID(vocab.PropIRI(vocab.PropExploits)), vA))
	addScenario(store, "S3", vocab.SituationOperational, a, b, c, cA, vA, cB, cC)

	runEngine(t, store)

	resiliences := store.Subjects(typePred, resilienceClass)
	if len(resiliences) != 1 {
		t.Fatalf("expected exactly one Resilience, got %d", len(resiliences))
	}
	r := resiliences[0]
	if !store.Contains(model.NewFact(a, resiliencesPred, r)) {
		t.Fatal("expected A.resiliences R")
	}
	if !store.Contains(model.NewFact(r, preservesPred, cA)) {
		t.Fatal("expected R.preserves cA")
	}
	if !store.Contains(model.NewFact(r, preservesAgainstPred, cC)) {
		t.Fatal("expected R.preservesAgainst cC")
	}
	if !store.Contains(model.NewFact(r, preservesDespitePred, vA)) {
		t.Fatal("expected R.preservesDespite vA")
	}
	if !store.Contains(model.NewFact(cB, sustainsPred, r)) {
		t.Fatal("expected cB.sustains R")
	}
	if !isEnabled(store, r) {
		t.Fatal("expected R.state = enabled")
	}
	if !isDisabled(store, vA) {
		t.Fatal("expected vA disabled after R1")
	}
	if !isEnabled(store, cB) {
		t.Fatal("expected cB enabled after R1")
	}
}

// TestS4SucceededToDamage grounds scenario S4.
func TestS4SucceededToDamage(t *testing.T) {
	store := newStore(t)
	a := addEntity(store, "A")
	b := addEntity(store, "B")
	cA := addCapability(store, a, "cA", vocab.StateEnabled)
	vA := addVulnerability(store, a, "vA", vocab.StateEnabled)
	cB := addCapability(store, b, "cB", vocab.StateEnabled)
	store.Add(model.NewFact(vA, model.ID(vocab.PropIRI(vocab.PropExposes)), cA))
	store.Add(model.NewFact(cB, model.ID(vocab.PropIRI(vocab.PropExploits)), vA))
	sc := addScenario(store, "S4", vocab.SituationIncident, a, b, cA, vA, cB)

	runEngine(t, store)

	if !store.Contains(model.NewFact(b, succeededPred, a)) {
		t.Fatal("expected B succeededToDamage A")
	}
	if statusOf(store, sc) != vocab.StatusNotResilient {
		t.Fatalf("expected notResilient status, got %q", statusOf(store, sc))
	}
}

// TestS5FailedToDamage grounds scenario S5.
func TestS5FailedToDamage(t *testing.T) {
	store := newStore(t)
	a := addEntity(store, "A")
	b := addEntity(store, "B")
	cA := addCapability(store, a, "cA", vocab.StateEnabled)
	vA := addVulnerability(store, a, "vA", vocab.StateDisabled)
	cB := addCapability(store, b, "cB", vocab.StateEnabled)
	store.Add(model.NewFact(vA, model.ID(vocab.PropIRI(vocab.PropExposes)), cA))
	store.Add(model.NewFact(cB, model.ID(vocab.PropIRI(vocab.PropExploits)), vA))
	sc := addScenario(store, "S5", vocab.SituationIncident, a, b, cA, vA, cB)

	runEngine(t, store)

	if !store.Contains(model.NewFact(b, failedPred, a)) {
		t.Fatal("expected B failedToDamage A")
	}
	if statusOf(store, sc) != vocab.StatusResilient {
		t.Fatalf("expected resilient status, got %q", statusOf(store, sc))
	}
}

// TestRuleIdempotence grounds spec section 8, P2.
func TestRuleIdempotence(t *testing.T) {
	store := newStore(t)
	a := addEntity(store, "A")
	b := addEntity(store, "B")
	cA := addCapability(store, a, "cA", vocab.StateEnabled)
	vB := addVulnerability(store, b, "vB", vocab.StateEnabled)
	store.Add(model.NewFact(cA, model.ID(vocab.PropIRI(vocab.PropDisables)), vB))
	addScenario(store, "S1", vocab.SituationOperational, a, b, cA, vB)

	runEngine(t, store)
	hash := store.ContentHash()

	cl, err := closure.Compute()
	if err != nil {
		t.Fatalf("closure.Compute: %v", err)
	}
	if err := New(cl, 64).Run(store); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if store.ContentHash() != hash {
		t.Fatal("a second fixed-point run should not change the content hash")
	}
}
