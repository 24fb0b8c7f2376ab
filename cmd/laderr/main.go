// Command laderr is the thin CLI collaborator spec.md section 6.3
// describes: it drives internal/pipeline end-to-end and turns the result
// into files and an exit code. It deliberately stays minimal (SPEC_FULL.md
// section B.4) — the interesting engineering lives in internal/, not here.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"laderr/internal/config"
	"laderr/internal/factstore"
	"laderr/internal/logging"
	"laderr/internal/model"
	"laderr/internal/pipeline"
	"laderr/internal/serialize"
	"laderr/internal/splitter"
	"laderr/internal/validate"
)

var (
	validatePre          bool
	validatePost         bool
	reason               bool
	saveGraph            bool
	saveGraphPre         bool
	saveVisualization    bool
	saveVisualizationPre bool
	silent               bool
	configPath           string
	maxIterations        int
	serializerName       string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "laderr <input-spec> <output-base>",
	Short: "Run the LaDeRR fact-graph pipeline over a specification document",
	Long: `laderr ingests a LaDeRR specification document, builds its fact graph,
optionally runs taxonomic closure and the nine inference rules to a fixed
point, optionally validates the result against the fixed shape constraints,
and writes the resulting graph (and one sub-graph per scenario) to disk.`,
	Args: cobra.ExactArgs(2),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if silent {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.FatalLevel)
		} else {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}

		ws, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine workspace: %w", err)
		}
		if err := logging.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runLaderr,
}

func init() {
	rootCmd.Flags().BoolVar(&validatePre, "validate-pre", false, "validate the fact graph before reasoning")
	rootCmd.Flags().BoolVar(&validatePost, "validate", false, "validate the fact graph after reasoning")
	rootCmd.Flags().BoolVar(&reason, "reason", false, "run taxonomic closure and the nine inference rules to a fixed point")
	rootCmd.Flags().BoolVar(&saveGraph, "save-graph", true, "save the post-reasoning fact graph")
	rootCmd.Flags().BoolVar(&saveGraphPre, "save-graph-pre", false, "save the pre-reasoning fact graph")
	rootCmd.Flags().BoolVar(&saveVisualization, "save-visualization", false, "save a post-reasoning visualization (out of core scope; see SPEC_FULL.md C.2)")
	rootCmd.Flags().BoolVar(&saveVisualizationPre, "save-visualization-pre", false, "save a pre-reasoning visualization (out of core scope; see SPEC_FULL.md C.2)")
	rootCmd.Flags().BoolVar(&silent, "silent", false, "suppress console logging")
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML run configuration file")
	rootCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "override the rule engine's iteration cap (0 = use config/default)")
	rootCmd.Flags().StringVar(&serializerName, "format", "", "output serializer: turtle, ntriples, or jsonld (empty = use config/default)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a pipeline error to the exit code spec section 6.3
// names: 1 document-load failure, 2 validation failure, 3 non-convergence.
// Errors that reach here outside those three kinds (flag parsing, I/O on
// the output side) also exit 1, the general failure code.
func exitCodeFor(err error) int {
	switch err.(type) {
	case *model.NonConvergingError:
		return 3
	case *model.ShapeViolationError:
		return 2
	default:
		return 1
	}
}

func runLaderr(cmd *cobra.Command, args []string) error {
	inputPath, outputBase := args[0], args[1]

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	iterations := cfg.MaxIterations
	if maxIterations > 0 {
		iterations = maxIterations
	}
	format := serialize.Format(cfg.Serializer)
	if serializerName != "" {
		format = serialize.Format(serializerName)
	}

	opts := pipeline.Options{
		MaxIterations: iterations,
		Reason:        reason,
		ValidatePre:   validatePre || (!cmd.Flags().Changed("validate-pre") && cfg.ValidatePreDefault),
		Validate:      validatePost || (!cmd.Flags().Changed("validate") && cfg.ValidateDefault),
	}

	logger.Info("running pipeline", zap.String("input", inputPath), zap.Bool("reason", opts.Reason))
	result, err := pipeline.Run(inputPath, opts)
	if err != nil {
		logger.Error("pipeline failed", zap.Error(err))
		return err
	}

	if opts.ValidatePre && !result.PreConforms {
		logReport("pre-reasoning", result.PreReport)
	}
	if opts.Validate {
		logReport("post-reasoning", result.Report)
		if !result.Conforms {
			return &model.ShapeViolationError{
				ViolationCount: violationCount(result.Report),
				Message:        "post-reasoning fact graph does not conform to the fixed shape constraints",
			}
		}
	}

	if saveGraphPre {
		if err := writeGraph(outputBase+"_pre", result.PreStore, format); err != nil {
			return err
		}
	}
	if saveGraph {
		if err := writeGraph(outputBase, result.Store, format); err != nil {
			return err
		}
		for _, id := range splitter.Keys(result.Scenarios) {
			if err := writeGraph(fmt.Sprintf("%s_%s", outputBase, id), result.Scenarios[id], format); err != nil {
				return err
			}
		}
	}

	if saveVisualization || saveVisualizationPre {
		logger.Warn("visualization rendering is a peripheral collaborator out of this module's scope (spec.md section 1); no .dot/.pdf output was produced")
	}

	logger.Info("pipeline complete", zap.Int("facts", result.Store.Len()), zap.Int("scenarios", len(result.Scenarios)))
	return nil
}

// extensionFor names the file suffix each serializer conventionally uses.
func extensionFor(format serialize.Format) string {
	switch format {
	case serialize.FormatTurtle:
		return ".ttl"
	case serialize.FormatJSONLD:
		return ".jsonld"
	default:
		return ".nt"
	}
}

func writeGraph(base string, store *factstore.Store, format serialize.Format) error {
	data, err := serialize.Serialize(store, format)
	if err != nil {
		return err
	}
	path := base + extensionFor(format)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &model.SerializationFailureError{Format: string(format), Err: err}
	}
	logger.Info("wrote graph", zap.String("path", path), zap.String("format", string(format)))
	return nil
}

func logReport(stage string, report validate.Report) {
	for _, f := range report.Findings {
		logger.Warn(fmt.Sprintf("%s validation finding", stage),
			zap.String("shape", f.Shape),
			zap.String("focus", f.FocusNode),
			zap.String("path", f.Path),
			zap.String("severity", f.Severity.String()),
			zap.String("message", f.Message),
		)
	}
}

func violationCount(report validate.Report) int {
	n := 0
	for _, f := range report.Findings {
		if f.Severity == validate.SeverityViolation {
			n++
		}
	}
	return n
}
