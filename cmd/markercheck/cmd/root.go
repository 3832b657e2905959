package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arenzana/markercheck/internal/books"
	"github.com/arenzana/markercheck/internal/formatter"
	"github.com/arenzana/markercheck/internal/l10n"
	"github.com/arenzana/markercheck/pkg/usfm/check"
	"github.com/arenzana/markercheck/pkg/usfm/style"
)

var (
	// Global flags
	usfm2          bool
	outputFormat   string
	stylesheetPath string
	verbose        bool

	// Version information
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
	buildBy      = "unknown"
)

// errDiagnostics signals a clean run that still reported problems; it maps
// to exit code 1 without the usage text.
var errDiagnostics = errors.New("diagnostics reported")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "markercheck [-usfm2] <book-code> <usfm-file>",
	Short: "Validate the USFM markup of a single scripture book",
	Long: `markercheck validates one book of scripture encoded in USFM (Unified
Standard Format Markers). It loads the marker definitions from usfm.sty in
the working directory, parses the book, and reports every structural
anomaly: unknown markers, unclosed spans, misplaced paragraphs, malformed
attributes, mismatched milestones, and so on.

The exit code is 0 when the book is clean and 1 when any diagnostic was
reported.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// SetVersionInfo sets version information from build-time variables
func SetVersionInfo(version, commit, date, builtBy string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	buildBy = builtBy

	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s, by: %s)",
		buildVersion, buildCommit, buildDate, buildBy)
}

// Execute runs the root command and returns the process exit code. The
// legacy three-argument form with a single-dash -usfm2 is accepted.
func Execute() int {
	args := os.Args[1:]
	for i, a := range args {
		if a == "-usfm2" {
			args[i] = "--usfm2"
		}
	}
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errDiagnostics) {
			return 1
		}
		// Bad arguments and unreadable files print help on stdout.
		fmt.Printf("Error: %v\n\n", err)
		fmt.Print(rootCmd.UsageString())
		return 1
	}
	return 0
}

func init() {
	rootCmd.Flags().BoolVar(&usfm2, "usfm2", false,
		"Reject USFM 3 features (milestones, attributes, ruby)")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "text",
		"Output format: text, json, tsv")
	rootCmd.Flags().StringVar(&stylesheetPath, "stylesheet", "usfm.sty",
		"Path to the marker stylesheet")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Verbose output")
}

// run is the main command execution function
func run(cmd *cobra.Command, args []string) error {
	bookCode := strings.ToUpper(args[0])
	inputPath := args[1]

	if err := validateFlags(); err != nil {
		return err
	}
	if !books.Valid(bookCode) {
		return fmt.Errorf("unknown book code: %s", args[0])
	}

	logger := zap.NewNop()
	if verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("cannot initialize logging: %w", err)
		}
		logger = dev
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	styData, err := os.ReadFile(stylesheetPath)
	if err != nil {
		return fmt.Errorf("cannot read stylesheet: %w", err)
	}
	catalog, loadErrs := style.Load(bytes.NewReader(styData), style.LoaderOptions{Log: sugar})
	for _, e := range loadErrs {
		fmt.Printf("%s:%d: %s\n", stylesheetPath, e.Line, e.Message)
	}

	src, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("cannot read input file: %w", err)
	}

	translator := l10n.English()
	diagnostics := check.Run(catalog, string(src), check.RunOptions{
		Book:       bookCode,
		Usfm2:      usfm2,
		BookNumber: books.Number,
		Translate:  translator.Translate,
		Log:        sugar,
	})

	sugar.Infow("book checked", "book", bookCode, "file", inputPath,
		"diagnostics", len(diagnostics), "stylesheet errors", len(loadErrs))

	output, err := formatDiagnostics(diagnostics)
	if err != nil {
		return err
	}
	fmt.Print(output)

	if len(diagnostics) > 0 || len(loadErrs) > 0 {
		return errDiagnostics
	}
	return nil
}

// validateFlags checks that flag combinations are valid
func validateFlags() error {
	validFormats := []string{"text", "json", "tsv"}
	for _, format := range validFormats {
		if outputFormat == format {
			return nil
		}
	}
	return fmt.Errorf("invalid output format: %s (valid: %s)",
		outputFormat, strings.Join(validFormats, ", "))
}

// formatDiagnostics renders the diagnostics in the selected format.
func formatDiagnostics(diagnostics []check.Diagnostic) (string, error) {
	switch outputFormat {
	case "json":
		return formatter.FormatJSON(diagnostics)
	case "tsv":
		return formatter.FormatTSV(diagnostics)
	default:
		return formatter.FormatText(diagnostics)
	}
}
