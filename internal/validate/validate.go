// Package validate implements the Constraint Validator (spec section 4.7):
// SHACL-style shape rules over the enriched Fact Store, producing a
// conformance verdict and a Report of violations/warnings/info findings.
package validate

import (
	"fmt"
	"sort"

	"laderr/internal/factstore"
	"laderr/internal/logging"
	"laderr/internal/model"
	"laderr/internal/vocab"
)

// Severity classifies a Finding. Only SeverityViolation flips Conforms to
// false (spec section 4.7: "Info- and warning-level findings never flip
// conforms to false").
type Severity int

const (
	SeverityViolation Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityViolation:
		return "violation"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Finding is one shape-constraint failure (spec section 4.7).
type Finding struct {
	Shape     string
	FocusNode string
	Path      string
	Severity  Severity
	Message   string
}

// Report enumerates every Finding from a validation run.
type Report struct {
	Findings []Finding
}

// Conforms reports whether the report contains no violation-severity
// findings (spec section 4.7, section 8 P7).
func (r Report) Conforms() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityViolation {
			return false
		}
	}
	return true
}

func (r *Report) add(shape, focus, path string, sev Severity, format string, args ...interface{}) {
	r.Findings = append(r.Findings, Finding{
		Shape:     shape,
		FocusNode: focus,
		Path:      path,
		Severity:  sev,
		Message:   fmt.Sprintf(format, args...),
	})
}

// Validate runs every shape in internal/validate/shapes.go against store
// and returns the conformance verdict plus the full report, sorted for
// deterministic output (spec section 8, P1).
func Validate(store *factstore.Store) (bool, Report) {
	timer := logging.StartTimer(logging.CategoryValidate, "validate")
	defer timer.Stop()

	var report Report
	for _, shape := range shapes {
		shape.check(store, &report)
	}
	sort.Slice(report.Findings, func(i, j int) bool {
		a, b := report.Findings[i], report.Findings[j]
		if a.Shape != b.Shape {
			return a.Shape < b.Shape
		}
		if a.FocusNode != b.FocusNode {
			return a.FocusNode < b.FocusNode
		}
		return a.Path < b.Path
	})
	conforms := report.Conforms()
	logging.Validate("validation complete: conforms=%v findings=%d", conforms, len(report.Findings))
	return conforms, report
}

var typePred = model.ID(vocab.PredType)
