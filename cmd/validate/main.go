// Command validate checks every exercise file under the content root and
// exits non-zero when at least one of them carries an error.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"jementraine/internal/config"
	"jementraine/internal/domain"
	"jementraine/internal/logger"
	"jementraine/internal/repository"
	"jementraine/internal/schema"
	"jementraine/internal/validation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	contentRoot string
	schemaPath  string
	outputJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the exercise corpus",
	Long: `Reads every JSON file under the content root, validates it against the
exercise schema and prints one line per file followed by a summary.
Warnings are reported but never fail the run.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runValidate,
}

func init() {
	rootCmd.Flags().StringVar(&contentRoot, "root", "", "content root (default from config)")
	rootCmd.Flags().StringVar(&schemaPath, "schema", "", "schema file (default from config, else the embedded schema)")
	rootCmd.Flags().BoolVar(&outputJSON, "json", false, "output the report as JSON")
}

// exitError carries a process status without an error message to print.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// fileLine is one entry of the JSON report.
type fileLine struct {
	Path     string         `json:"path"`
	Valid    bool           `json:"valid"`
	Errors   []domain.Issue `json:"errors"`
	Warnings []domain.Issue `json:"warnings"`
}

type report struct {
	Root       string             `json:"root"`
	Files      []fileLine         `json:"files"`
	Summary    validation.Summary `json:"summary"`
	Errors     int                `json:"errors"`
	Duplicates map[string]int     `json:"duplicate_slugs,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Get()

	root := contentRoot
	if root == "" {
		root = cfg.Content.Root
	}
	schemaFile := schemaPath
	if schemaFile == "" {
		schemaFile = cfg.Schema.Path
	}

	s, err := schema.Load(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}
	repo := repository.NewExerciseFileRepository(root, cfg.Loader.Workers, validation.NewValidator(s), nil, log)

	files, err := repo.ScanAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}

	rep := buildReport(root, files)
	log.Debug("Validation finished",
		zap.String("root", root),
		zap.Int("files", rep.Summary.Total),
		zap.Int("invalid", rep.Summary.Invalid),
	)

	if outputJSON {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
	} else {
		printReport(cmd, rep)
	}

	if code := rep.Summary.ExitCode(); code != 0 {
		return exitError{code: code}
	}
	return nil
}

func buildReport(root string, files []repository.FileReport) report {
	rep := report{Root: root, Files: make([]fileLine, 0, len(files))}
	var valid []*domain.Exercise
	for _, f := range files {
		line := fileLine{
			Path:     f.Path,
			Valid:    f.Valid(),
			Errors:   f.Issues(),
			Warnings: f.Result.Warnings,
		}
		if line.Errors == nil {
			line.Errors = []domain.Issue{}
		}
		if line.Warnings == nil {
			line.Warnings = []domain.Issue{}
		}
		rep.Files = append(rep.Files, line)

		rep.Summary.Total++
		rep.Summary.Warnings += len(line.Warnings)
		rep.Errors += f.ErrorCount()
		if line.Valid {
			rep.Summary.Valid++
			valid = append(valid, f.Exercise)
		} else {
			rep.Summary.Invalid++
		}
	}
	if _, dups := validation.DuplicateSlugs(valid); len(dups) > 0 {
		rep.Duplicates = dups
	}
	return rep
}

func printReport(cmd *cobra.Command, rep report) {
	if rep.Summary.Total == 0 {
		cmd.Printf("Aucun fichier JSON trouvé dans %s\n", rep.Root)
		return
	}

	for _, f := range rep.Files {
		path := displayPath(f.Path)
		switch {
		case !f.Valid:
			cmd.Printf("ERREUR  %s\n", path)
			for _, issue := range f.Errors {
				cmd.Printf("   - erreur: %s\n", issue)
			}
		case len(f.Warnings) > 0:
			cmd.Printf("ATTENTION %s\n", path)
		default:
			cmd.Printf("OK      %s\n", path)
		}
		for _, issue := range f.Warnings {
			cmd.Printf("   - avertissement: %s\n", issue)
		}
	}

	if len(rep.Duplicates) > 0 {
		cmd.Println()
		cmd.Println("Slugs en double (information):")
		for _, slug := range sortedKeys(rep.Duplicates) {
			cmd.Printf("   - %s (%d fichiers)\n", slug, rep.Duplicates[slug])
		}
	}

	cmd.Println()
	cmd.Println(strings.Repeat("-", 50))
	cmd.Printf("Résumé: %d/%d valides\n", rep.Summary.Valid, rep.Summary.Total)
	cmd.Printf("Erreurs: %d | Avertissements: %d\n", rep.Errors, rep.Summary.Warnings)
	if rep.Summary.Invalid > 0 {
		cmd.Println("Validation échouée")
	} else {
		cmd.Println("Validation réussie")
	}
}

// displayPath shortens path relative to the working directory when possible.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func main() {
	rootCmd.SetOut(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
