// Package factstore implements the Fact Store (spec section 4.1): a
// multiset-free set of (subject, predicate, object) triples with pattern
// queries and a deterministic content hash.
//
// This store is deliberately not built on github.com/google/mangle's
// factstore/ast types — see DESIGN.md for why the Mangle identifier grammar
// cannot hold arbitrary absolute-URI constructs. google/mangle is still
// used for real elsewhere, in internal/closure.
package factstore

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"laderr/internal/model"
)

// Store holds facts indexed three ways for the query shapes spec section
// 4.1 names, plus a namespace prefix table for bind_prefix.
type Store struct {
	mu sync.RWMutex

	facts map[model.Fact]struct{}

	bySubject   map[model.Term]map[model.Fact]struct{}
	byPredicate map[model.Term]map[model.Fact]struct{}
	byObject    map[model.Term]map[model.Fact]struct{}

	prefixes map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		facts:       make(map[model.Fact]struct{}),
		bySubject:   make(map[model.Term]map[model.Fact]struct{}),
		byPredicate: make(map[model.Term]map[model.Fact]struct{}),
		byObject:    make(map[model.Term]map[model.Fact]struct{}),
		prefixes:    make(map[string]string),
	}
}

// Add inserts a fact. Idempotent: re-adding an existing fact is a no-op.
func (s *Store) Add(f model.Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(f)
}

// AddAll inserts every fact in fs.
func (s *Store) AddAll(fs []model.Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fs {
		s.addLocked(f)
	}
}

func (s *Store) addLocked(f model.Fact) {
	if _, ok := s.facts[f]; ok {
		return
	}
	s.facts[f] = struct{}{}
	index(s.bySubject, f.Subject, f)
	index(s.byPredicate, f.Predicate, f)
	index(s.byObject, f.Object, f)
}

func index(m map[model.Term]map[model.Fact]struct{}, key model.Term, f model.Fact) {
	bucket, ok := m[key]
	if !ok {
		bucket = make(map[model.Fact]struct{})
		m[key] = bucket
	}
	bucket[f] = struct{}{}
}

func unindex(m map[model.Term]map[model.Fact]struct{}, key model.Term, f model.Fact) {
	bucket, ok := m[key]
	if !ok {
		return
	}
	delete(bucket, f)
	if len(bucket) == 0 {
		delete(m, key)
	}
}

// Remove deletes a fact. Removing a fact that is not present is a no-op.
func (s *Store) Remove(f model.Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.facts[f]; !ok {
		return
	}
	delete(s.facts, f)
	unindex(s.bySubject, f.Subject, f)
	unindex(s.byPredicate, f.Predicate, f)
	unindex(s.byObject, f.Object, f)
}

// RemoveAll deletes every fact in fs.
func (s *Store) RemoveAll(fs []model.Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fs {
		if _, ok := s.facts[f]; !ok {
			continue
		}
		delete(s.facts, f)
		unindex(s.bySubject, f.Subject, f)
		unindex(s.byPredicate, f.Predicate, f)
		unindex(s.byObject, f.Object, f)
	}
}

// Contains reports whether the exact triple is present.
func (s *Store) Contains(f model.Fact) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.facts[f]
	return ok
}

// Len returns the number of distinct facts currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facts)
}

// Subjects returns every subject s such that (s, p, o) holds.
func (s *Store) Subjects(p, o model.Term) []model.Term {
	return s.matchTerms(func(f model.Fact) (model.Term, bool) {
		if f.Predicate == p && f.Object == o {
			return f.Subject, true
		}
		return model.Term{}, false
	})
}

// Objects returns every object o such that (s, p, o) holds.
func (s *Store) Objects(sub, p model.Term) []model.Term {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[model.Term]struct{})
	var out []model.Term
	for f := range s.bySubject[sub] {
		if f.Predicate != p {
			continue
		}
		if _, ok := seen[f.Object]; ok {
			continue
		}
		seen[f.Object] = struct{}{}
		out = append(out, f.Object)
	}
	sortTerms(out)
	return out
}

// PredicateObjects returns every (predicate, object) pair for the given
// subject.
func (s *Store) PredicateObjects(sub model.Term) []model.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Fact
	for f := range s.bySubject[sub] {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// SubjectObjects returns every (subject, object) pair for the given
// predicate.
func (s *Store) SubjectObjects(p model.Term) []model.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Fact
	for f := range s.byPredicate[p] {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Pattern is a (subject, predicate, object) query where a nil field is a
// wildcard.
type Pattern struct {
	Subject   *model.Term
	Predicate *model.Term
	Object    *model.Term
}

// Triples returns every fact matching pattern, in lexicographic order.
// Querying is total: an unmatched pattern yields an empty slice, never an
// error.
func (s *Store) Triples(pattern Pattern) []model.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := s.facts
	if pattern.Subject != nil {
		candidates = s.bySubject[*pattern.Subject]
	} else if pattern.Predicate != nil {
		candidates = s.byPredicate[*pattern.Predicate]
	} else if pattern.Object != nil {
		candidates = s.byObject[*pattern.Object]
	}

	var out []model.Fact
	for f := range candidates {
		if pattern.Subject != nil && f.Subject != *pattern.Subject {
			continue
		}
		if pattern.Predicate != nil && f.Predicate != *pattern.Predicate {
			continue
		}
		if pattern.Object != nil && f.Object != *pattern.Object {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// All returns every fact in lexicographic (subject, predicate, object)
// order — the order the canonical serializer and the content hash rely on.
func (s *Store) All() []model.Fact {
	return s.Triples(Pattern{})
}

func (s *Store) matchTerms(match func(model.Fact) (model.Term, bool)) []model.Term {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[model.Term]struct{})
	var out []model.Term
	for f := range s.facts {
		t, ok := match(f)
		if !ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sortTerms(out)
	return out
}

func sortTerms(ts []model.Term) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Less(ts[j]) })
}

// BindPrefix records a namespace prefix for use by the serializers
// (turtle-like output abbreviates bound prefixes; N-triples-like ignores
// them, since its canonical form always uses full IRIs).
func (s *Store) BindPrefix(name, iri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefixes[name] = iri
}

// Prefixes returns a snapshot of the bound namespace prefixes.
func (s *Store) Prefixes() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.prefixes))
	for k, v := range s.prefixes {
		out[k] = v
	}
	return out
}

// ContentHash returns the SHA-256 hash of the canonical serialization: each
// fact rendered as "<subject> <predicate> <object> .\n" in lexicographic
// order, the whole string NFC-normalized. The rule engine's fixed-point
// driver (spec section 4.6) compares this value across iterations instead
// of tracking deltas, since R1 both adds and removes facts in the same pass.
func (s *Store) ContentHash() string {
	facts := s.All()
	var b strings.Builder
	for _, f := range facts {
		b.WriteString(f.Subject.String())
		b.WriteByte(' ')
		b.WriteString(f.Predicate.String())
		b.WriteByte(' ')
		b.WriteString(f.Object.String())
		b.WriteString(" .\n")
	}
	sum := sha256.Sum256([]byte(norm.NFC.String(b.String())))
	return hex.EncodeToString(sum[:])
}
