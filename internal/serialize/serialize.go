// Package serialize implements the three output formats spec section 6.2
// names (turtle-like, N-triples-like, JSON-LD-like) over the Fact Store's
// Triples iterator. N-triples-like is also the canonical form the Fact
// Store's content hash uses (spec section 4.1), so Serialize's NTriples
// output and Store.ContentHash's internal serialization agree byte-for-byte
// modulo the trailing hash step.
package serialize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"laderr/internal/factstore"
	"laderr/internal/model"
)

// Format names one of the three user-selectable serializers.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
	FormatJSONLD   Format = "jsonld"
)

// ValidFormats lists every Format Serialize accepts.
var ValidFormats = []Format{FormatTurtle, FormatNTriples, FormatJSONLD}

// Serialize renders every fact in store under the chosen format. Output is
// always built from store.All(), which is already in the canonical
// lexicographic (subject, predicate, object) order (spec section 4.1), so
// every format is deterministic (spec section 8, P1).
func Serialize(store *factstore.Store, format Format) ([]byte, error) {
	switch format {
	case FormatNTriples:
		return []byte(NTriples(store)), nil
	case FormatTurtle:
		return []byte(Turtle(store)), nil
	case FormatJSONLD:
		return JSONLD(store)
	default:
		return nil, &model.SerializationFailureError{Format: string(format), Err: fmt.Errorf("unknown serializer")}
	}
}

// NTriples renders store as the canonical N-Triples-like form: one
// "<subject> <predicate> object ." line per fact, UTF-8, NFC-normalized,
// "\n" endings, lexicographically sorted.
func NTriples(store *factstore.Store) string {
	var b strings.Builder
	for _, f := range store.All() {
		b.WriteString(f.Subject.String())
		b.WriteByte(' ')
		b.WriteString(f.Predicate.String())
		b.WriteByte(' ')
		b.WriteString(f.Object.String())
		b.WriteString(" .\n")
	}
	return norm.NFC.String(b.String())
}

// Turtle renders store grouped by subject, abbreviating any bound prefix
// (spec section 4.1's bind_prefix) and using bare "a" for rdf:type.
func Turtle(store *factstore.Store) string {
	prefixes := store.Prefixes()
	var prefixNames []string
	for name := range prefixes {
		prefixNames = append(prefixNames, name)
	}
	sort.Strings(prefixNames)

	var b strings.Builder
	for _, name := range prefixNames {
		if name == "" {
			continue
		}
		fmt.Fprintf(&b, "@prefix %s: <%s> .\n", name, prefixes[name])
	}
	if iri, ok := prefixes[""]; ok {
		fmt.Fprintf(&b, "@base <%s> .\n", iri)
	}
	b.WriteByte('\n')

	facts := store.All()
	var subjects []model.Term
	bySubject := make(map[model.Term][]model.Fact)
	for _, f := range facts {
		if _, ok := bySubject[f.Subject]; !ok {
			subjects = append(subjects, f.Subject)
		}
		bySubject[f.Subject] = append(bySubject[f.Subject], f)
	}

	for _, s := range subjects {
		fmt.Fprintf(&b, "%s\n", abbreviate(s.Value(), prefixes, true))
		preds := bySubject[s]
		for i, f := range preds {
			sep := " ;"
			if i == len(preds)-1 {
				sep = " ."
			}
			predStr := abbreviate(f.Predicate.Value(), prefixes, true)
			if isTypePredicate(f.Predicate) {
				predStr = "a"
			}
			fmt.Fprintf(&b, "  %s %s%s\n", predStr, termString(f.Object, prefixes), sep)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func isTypePredicate(p model.Term) bool {
	return strings.HasSuffix(p.Value(), "#type")
}

func termString(t model.Term, prefixes map[string]string) string {
	if t.IsIdentifier() {
		return abbreviate(t.Value(), prefixes, true)
	}
	return t.String()
}

func abbreviate(iri string, prefixes map[string]string, angleBrackets bool) string {
	for name, ns := range prefixes {
		if name == "" || ns == "" {
			continue
		}
		if strings.HasPrefix(iri, ns) {
			return name + ":" + strings.TrimPrefix(iri, ns)
		}
	}
	if angleBrackets {
		return "<" + iri + ">"
	}
	return iri
}

// JSONLD renders store as an array of per-subject JSON objects, with
// "@id" for the subject and one array-valued key per predicate (always an
// array, even for single-valued properties, to keep the shape uniform
// without a schema to distinguish cardinality).
func JSONLD(store *factstore.Store) ([]byte, error) {
	facts := store.All()
	var subjects []model.Term
	bySubject := make(map[model.Term][]model.Fact)
	for _, f := range facts {
		if _, ok := bySubject[f.Subject]; !ok {
			subjects = append(subjects, f.Subject)
		}
		bySubject[f.Subject] = append(bySubject[f.Subject], f)
	}

	var out []map[string]interface{}
	for _, s := range subjects {
		node := map[string]interface{}{"@id": s.Value()}
		for _, f := range bySubject[s] {
			key := f.Predicate.Value()
			var val interface{}
			if f.Object.IsIdentifier() {
				val = map[string]string{"@id": f.Object.Value()}
			} else if dt := datatypeIRI(f.Object.Kind()); dt != "" {
				val = map[string]string{"@value": f.Object.Value(), "@type": dt}
			} else {
				val = f.Object.Value()
			}
			if existing, ok := node[key]; ok {
				node[key] = append(existing.([]interface{}), val)
			} else {
				node[key] = []interface{}{val}
			}
		}
		out = append(out, node)
	}
	return json.MarshalIndent(out, "", "  ")
}

func datatypeIRI(k model.Datatype) string {
	switch k {
	case model.KindDateTime:
		return "http://www.w3.org/2001/XMLSchema#dateTime"
	case model.KindAnyURI:
		return "http://www.w3.org/2001/XMLSchema#anyURI"
	case model.KindBoolean:
		return "http://www.w3.org/2001/XMLSchema#boolean"
	default:
		return ""
	}
}
