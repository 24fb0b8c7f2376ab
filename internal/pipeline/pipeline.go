// Package pipeline wires the leaf components (spec section 2) into the one
// batch transform the core exposes: input document in, enriched Fact Store
// plus per-scenario sub-stores and a validation report out. It is the
// library entry point the cmd/laderr collaborator (and any future
// collaborator) drives; it owns no flags, no I/O beyond the input path, and
// no process-exit concerns of its own.
package pipeline

import (
	"laderr/internal/closure"
	"laderr/internal/factstore"
	"laderr/internal/graphbuilder"
	"laderr/internal/ingest"
	"laderr/internal/logging"
	"laderr/internal/report"
	"laderr/internal/rules"
	"laderr/internal/splitter"
	"laderr/internal/validate"
	"laderr/internal/vocab"
)

// Options configures one pipeline run, mirroring the CLI's flags (spec
// section 6.3) without depending on any flag-parsing package.
type Options struct {
	// MaxIterations caps the rule engine's fixed-point loop (spec section
	// 4.6). Zero selects the default of 64.
	MaxIterations int

	// Reason runs Taxonomic Closure and the Rule Engine (spec sections 4.5
	// and 4.6) over the freshly built graph, mirroring the original
	// implementation's `-r/--reasoning` flag: a caller that only wants the
	// raw, un-inferred fact graph (e.g. to inspect --save-graph-pre output
	// without paying for inference) leaves this false.
	Reason bool

	// ValidatePre runs the Constraint Validator against the freshly built,
	// pre-inference store (before Taxonomic Closure and the rule engine).
	ValidatePre bool

	// Validate runs the Constraint Validator against the store as it stands
	// after the Reason step (fully enriched when Reason is set, otherwise
	// the same pre-inference store ValidatePre would see).
	Validate bool
}

// Result holds everything a collaborator needs to render output: the
// enriched store, the pre-inference store, per-scenario sub-stores, and
// both validation reports (present only when requested).
type Result struct {
	// Document is the parsed, default-applied input tree (spec section
	// 4.2), kept for collaborators that want to report ingest warnings.
	Document *ingest.Document

	// PreStore is the Graph Builder's output before Taxonomic Closure and
	// rule inference have run. It is always populated, whatever the
	// Options — callers that don't need it simply ignore it.
	PreStore *factstore.Store

	// Store is the fully enriched, post-fixed-point Fact Store.
	Store *factstore.Store

	// PreConforms/PreReport hold the pre-inference validation verdict, set
	// only when Options.ValidatePre is true.
	PreConforms bool
	PreReport   validate.Report

	// Conforms/Report hold the post-inference validation verdict, set only
	// when Options.Validate is true.
	Conforms bool
	Report   validate.Report

	// Scenarios maps scenario identifier to its partitioned sub-store
	// (spec section 4.8).
	Scenarios map[string]*factstore.Store

	// Summaries maps scenario identifier to its structured report summary
	// (SPEC_FULL.md section C.2).
	Summaries map[string]*report.Scenario
}

// Run executes the full pipeline (spec section 2) over the document at
// path: ingest, schema load, graph build, taxonomic closure and rule
// inference to a fixed point (only when Options.Reason is set), optional
// validation, scenario splitting, and report summarization.
//
// Run returns *model.UnreadableDocumentError or *model.MalformedDocumentError
// from the ingest stage, and *model.NonConvergingError from the rule
// engine; a non-conforming validator verdict is never an error here — it is
// data on Result, exactly as spec section 7's propagation policy requires.
// The caller decides whether ShapeViolationError is fatal (spec section
// 6.3's exit code 2 applies only when --validate was requested).
func Run(path string, opts Options) (*Result, error) {
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 64
	}

	logging.Ingest("reading document %s", path)
	doc, err := ingest.Read(path)
	if err != nil {
		return nil, err
	}
	for _, w := range doc.Warnings {
		logging.IngestWarn("%s", w)
	}

	logging.Build("building graph for %d scenario(s), %d construct(s)", len(doc.Scenarios), len(doc.Constructs))
	store := graphbuilder.Build(doc)
	store.AddAll(vocab.SchemaFacts())

	preStore := snapshot(store)
	result := &Result{Document: doc, PreStore: preStore}

	if opts.ValidatePre {
		conforms, rep := validate.Validate(preStore)
		result.PreConforms = conforms
		result.PreReport = rep
	}

	if opts.Reason {
		cl, err := closure.Compute()
		if err != nil {
			return nil, err
		}
		cl.Apply(store)

		engine := rules.New(cl, maxIterations)
		logging.Rules("starting fixed-point inference (max %d iterations)", maxIterations)
		if err := engine.Run(store); err != nil {
			return nil, err
		}
	}

	result.Store = store

	if opts.Validate {
		conforms, rep := validate.Validate(store)
		result.Conforms = conforms
		result.Report = rep
	}

	scenarios := splitter.Split(store)
	result.Scenarios = scenarios
	result.Summaries = report.Build(scenarios)

	logging.Build("pipeline complete: %d fact(s), %d scenario(s)", store.Len(), len(scenarios))
	return result, nil
}

// snapshot returns an independent copy of store, so that a later in-place
// mutation (taxonomic closure, rule inference) never retroactively changes
// a Result field a caller already captured — most importantly PreStore,
// which backs the CLI's --save-graph-pre output.
func snapshot(store *factstore.Store) *factstore.Store {
	out := factstore.New()
	for name, iri := range store.Prefixes() {
		out.BindPrefix(name, iri)
	}
	out.AddAll(store.All())
	return out
}
