// Package ingest implements the Document Ingestor (spec section 4.2): it
// parses the hierarchical TOML-shaped input document into a structured,
// default-applied tree ready for the Graph Builder. Semantic defaults never
// fail; only syntactic and I/O errors are fatal here.
package ingest

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"laderr/internal/model"
)

// knownKinds is the construct-kind vocabulary the input document's
// `[<id>.<Kind>.<instanceId>]` and `[<Kind>.<instanceId>]` tables may use
// (spec section 6.1). Anything else is an unrecognized kind, preserved
// unchanged as an opaque typed node.
var knownKinds = map[string]bool{
	"Entity":        true,
	"Asset":         true,
	"Threat":        true,
	"Control":       true,
	"Unclassified":  true,
	"Capability":    true,
	"Vulnerability": true,
}

// dispositionKinds default to state=enabled when the document omits state.
var dispositionKinds = map[string]bool{
	"Capability":    true,
	"Vulnerability": true,
}

const defaultBaseURI = "https://laderr.example/#"

// Metadata is the specification's flat metadata header, defaults already
// applied (spec section 4.2).
type Metadata struct {
	Title      string
	Version    string
	CreatedBy  []string
	CreatedOn  string
	ModifiedOn string
	BaseURI    string
	Extra      map[string]interface{}
}

// ScenarioDecl is one entry of the `[Scenario.<id>]` table.
type ScenarioDecl struct {
	ID        string
	Label     string
	Situation string
	Status    string // "" when absent; R9's default (operational) is the rule engine's job, not ingest's.
}

// Construct is one materialized `[<scenarioId>.<Kind>.<instanceId>]` or
// global `[<Kind>.<instanceId>]` table, defaults already applied.
type Construct struct {
	ID         string
	Kind       string
	Properties map[string]interface{}
	// ScenarioIDs lists every scenario this construct belongs to: exactly
	// one entry for a per-scenario construct, one or more for a global
	// construct carrying an explicit `scenarios` list.
	ScenarioIDs []string
	Global      bool
}

// Document is the fully-parsed, default-applied input tree the Graph
// Builder consumes.
type Document struct {
	Metadata   Metadata
	Scenarios  []ScenarioDecl
	Constructs []Construct
	Warnings   []string
}

// Read parses path as a LaDeRR TOML document and applies every semantic
// default spec section 4.2 specifies. It never fails on a missing default;
// it fails only with *model.MalformedDocumentError (syntactic error) or
// *model.UnreadableDocumentError (I/O error).
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.UnreadableDocumentError{Path: path, Err: err}
	}

	raw := make(map[string]interface{})
	if _, err := toml.Decode(string(data), &raw); err != nil {
		position := ""
		if parseErr, ok := err.(toml.ParseError); ok {
			position = fmt.Sprintf("line %d, column %d", parseErr.Position.Line, parseErr.Position.Col)
		}
		return nil, &model.MalformedDocumentError{Path: path, Position: position, Err: err}
	}
	return build(path, raw)
}

func build(path string, raw map[string]interface{}) (*Document, error) {
	doc := &Document{}

	metaRaw := make(map[string]interface{})
	scenarioTable := map[string]interface{}(nil)
	sectionTables := make(map[string]map[string]interface{}) // top-level key -> nested table

	for key, value := range raw {
		table, isTable := value.(map[string]interface{})
		if !isTable {
			metaRaw[key] = value
			continue
		}
		if key == "Scenario" {
			scenarioTable = table
			continue
		}
		sectionTables[key] = table
	}

	doc.Metadata = buildMetadata(metaRaw, &doc.Warnings)

	if scenarioTable != nil {
		var ids []string
		for id := range scenarioTable {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			entry, _ := scenarioTable[id].(map[string]interface{})
			doc.Scenarios = append(doc.Scenarios, buildScenarioDecl(id, entry))
		}
	}

	var sectionKeys []string
	for key := range sectionTables {
		sectionKeys = append(sectionKeys, key)
	}
	sort.Strings(sectionKeys)

	for _, key := range sectionKeys {
		table := sectionTables[key]
		if knownKinds[key] {
			doc.Constructs = append(doc.Constructs, buildGlobalConstructs(key, table, &doc.Warnings)...)
			continue
		}
		// Otherwise key is a scenario identifier with nested Kind tables.
		doc.Constructs = append(doc.Constructs, buildScenarioConstructs(key, table, &doc.Warnings)...)
	}

	sort.Slice(doc.Constructs, func(i, j int) bool { return doc.Constructs[i].ID < doc.Constructs[j].ID })

	return doc, nil
}

func buildMetadata(raw map[string]interface{}, warnings *[]string) Metadata {
	m := Metadata{Extra: make(map[string]interface{})}
	for key, value := range raw {
		switch key {
		case "title":
			m.Title, _ = value.(string)
		case "version":
			m.Version, _ = value.(string)
		case "createdOn":
			m.CreatedOn, _ = value.(string)
		case "modifiedOn":
			m.ModifiedOn, _ = value.(string)
		case "baseURI":
			m.BaseURI, _ = value.(string)
		case "createdBy":
			m.CreatedBy = normalizeStringSet(value)
		default:
			m.Extra[key] = value
		}
	}
	if !isValidAbsoluteURI(m.BaseURI) {
		if m.BaseURI != "" {
			*warnings = append(*warnings, fmt.Sprintf("baseURI %q is not a valid absolute URI; defaulting to %s", m.BaseURI, defaultBaseURI))
		}
		m.BaseURI = defaultBaseURI
	}
	return m
}

func normalizeStringSet(value interface{}) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []interface{}:
		seen := make(map[string]struct{}, len(v))
		var out []string
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
		sort.Strings(out)
		return out
	default:
		return nil
	}
}

func isValidAbsoluteURI(uri string) bool {
	if uri == "" {
		return false
	}
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok || scheme == "" {
		return false
	}
	return strings.TrimSpace(rest) != ""
}

func buildScenarioDecl(id string, entry map[string]interface{}) ScenarioDecl {
	decl := ScenarioDecl{ID: id, Label: id}
	if entry == nil {
		return decl
	}
	if label, ok := entry["label"].(string); ok && label != "" {
		decl.Label = label
	}
	if situation, ok := entry["situation"].(string); ok {
		decl.Situation = situation
	}
	if status, ok := entry["status"].(string); ok {
		decl.Status = status
	}
	return decl
}

// buildScenarioConstructs handles a `[<scenarioId>.<Kind>.<instanceId>]`
// section, already narrowed to the table keyed by Kind.
func buildScenarioConstructs(scenarioID string, kindTable map[string]interface{}, warnings *[]string) []Construct {
	var out []Construct
	var kinds []string
	for k := range kindTable {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		instances, ok := kindTable[kind].(map[string]interface{})
		if !ok {
			continue
		}
		var instanceIDs []string
		for id := range instances {
			instanceIDs = append(instanceIDs, id)
		}
		sort.Strings(instanceIDs)
		for _, instanceID := range instanceIDs {
			props, _ := instances[instanceID].(map[string]interface{})
			c := buildConstruct(instanceID, kind, props, warnings)
			c.ScenarioIDs = []string{scenarioID}
			out = append(out, c)
		}
	}
	return out
}

// buildGlobalConstructs handles a top-level `[<Kind>.<instanceId>]` section
// carrying an explicit `scenarios` list.
func buildGlobalConstructs(kind string, instances map[string]interface{}, warnings *[]string) []Construct {
	var out []Construct
	var instanceIDs []string
	for id := range instances {
		instanceIDs = append(instanceIDs, id)
	}
	sort.Strings(instanceIDs)
	for _, instanceID := range instanceIDs {
		props, _ := instances[instanceID].(map[string]interface{})
		c := buildConstruct(instanceID, kind, props, warnings)
		c.Global = true
		if scenarios, ok := props["scenarios"]; ok {
			c.ScenarioIDs = normalizeStringSet(scenarios)
		}
		delete(c.Properties, "scenarios")
		out = append(out, c)
	}
	return out
}

func buildConstruct(sectionKey, kind string, props map[string]interface{}, warnings *[]string) Construct {
	clone := make(map[string]interface{}, len(props))
	for k, v := range props {
		clone[k] = v
	}

	id := sectionKey
	if explicit, ok := clone["id"].(string); ok && explicit != "" {
		if explicit != sectionKey {
			*warnings = append(*warnings, fmt.Sprintf(
				"construct %q declares id %q which disagrees with its section key; the section key wins", sectionKey, explicit))
		}
		id = sectionKey
	}
	clone["id"] = id

	if _, ok := clone["label"]; !ok {
		clone["label"] = id
	}
	if dispositionKinds[kind] {
		if _, ok := clone["state"]; !ok {
			clone["state"] = "enabled"
		}
	}

	return Construct{ID: id, Kind: kind, Properties: clone}
}
