package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"laderr/internal/model"
)

func resetFlags() {
	validatePre = false
	validatePost = false
	reason = false
	saveGraph = true
	saveGraphPre = false
	saveVisualization = false
	saveVisualizationPre = false
	silent = false
	configPath = ""
	maxIterations = 0
	serializerName = ""
}

const smokeDoc = `
title = "smoke"

[Scenario.s1]
situation = "operational"

[s1.Entity.A]
capabilities = ["cA"]

[s1.Entity.B]
vulnerabilities = ["vB"]

[s1.Capability.cA]
disables = "vB"

[s1.Vulnerability.vB]
`

func TestRunLaderrWritesGraphAndScenarioFiles(t *testing.T) {
	logger = zap.NewNop()
	resetFlags()
	defer resetFlags()

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "spec.toml")
	if err := os.WriteFile(inputPath, []byte(smokeDoc), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	outputBase := filepath.Join(dir, "out")

	reason = true
	serializerName = "ntriples"

	cmd := &cobra.Command{}
	if err := runLaderr(cmd, []string{inputPath, outputBase}); err != nil {
		t.Fatalf("runLaderr: %v", err)
	}

	if _, err := os.Stat(outputBase + ".nt"); err != nil {
		t.Errorf("expected main graph file: %v", err)
	}
	if _, err := os.Stat(outputBase + "_s1.nt"); err != nil {
		t.Errorf("expected per-scenario graph file: %v", err)
	}
}

func TestRunLaderrValidateFailureReturnsShapeViolation(t *testing.T) {
	logger = zap.NewNop()
	resetFlags()
	defer resetFlags()

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "spec.toml")
	// A Capability with no owning Entity violates the validator's
	// "every Capability is the object of exactly one capabilities edge"
	// structural constraint (spec section 4.7).
	body := `
title = "orphan-capability"

[Scenario.s1]
situation = "operational"

[s1.Capability.cA]
`
	if err := os.WriteFile(inputPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	reason = true
	validatePost = true

	cmd := &cobra.Command{}
	err := runLaderr(cmd, []string{inputPath, filepath.Join(dir, "out")})
	if err == nil {
		t.Fatal("expected a shape violation error for an unowned Capability")
	}
	if exitCodeFor(err) != 2 {
		t.Errorf("expected exit code 2 for a validation failure, got %d", exitCodeFor(err))
	}
}

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unreadable document", &model.UnreadableDocumentError{Path: "x"}, 1},
		{"shape violation", &model.ShapeViolationError{}, 2},
		{"non-convergence", &model.NonConvergingError{MaxIterations: 64}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCodeFor(tc.err); got != tc.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
