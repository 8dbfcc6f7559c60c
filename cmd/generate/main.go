// Command generate produces new exercise files, either from the built-in
// templates or through a language model, and writes the valid ones into the
// content tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jementraine/internal/adapter/exercisegen"
	"jementraine/internal/config"
	"jementraine/internal/domain"
	"jementraine/internal/logger"
	"jementraine/internal/repository"
	"jementraine/internal/schema"
	"jementraine/internal/service"
	"jementraine/internal/validation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	genCount     int
	genLevel     string
	genDomain    string
	genDate      string
	genRoot      string
	genOverwrite bool
	genDryRun    bool
	genSeed      int64
)

var rootCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate exercise files",
	Long: `Generates exercises and writes every candidate that passes validation to
<root>/<year>/<month>/<slug>.json. Levels rotate across the run unless --level
is given, and domains are drawn by weight unless --domain is given.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Generate exercises from the built-in templates",
	Args:  cobra.NoArgs,
	RunE:  runTemplate,
}

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Generate exercises with the configured language model",
	Long: `Generates exercises with the language model selected by llm.provider
(openai or ollama). Rejected candidates are retried up to llm.max_retries times.`,
	Args: cobra.NoArgs,
	RunE: runAI,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.IntVarP(&genCount, "count", "n", 1, "number of exercises to generate")
	flags.StringVarP(&genLevel, "level", "l", "", "force a level (CP, CE1, CE2)")
	flags.StringVarP(&genDomain, "domain", "d", "", "force a domain")
	flags.StringVar(&genDate, "date", "", "publication date of the first exercises, YYYY-MM-DD (default today)")
	flags.StringVar(&genRoot, "root", "", "content root (default from config)")
	flags.BoolVar(&genOverwrite, "overwrite", false, "replace existing files")
	flags.BoolVar(&genDryRun, "dry-run", false, "validate candidates without writing them")
	flags.Int64Var(&genSeed, "seed", 0, "random seed, 0 for a time-based one")

	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(aiCmd)
}

// exitError carries a process status without an error message to print.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// environment is what both generators share.
type environment struct {
	cfg       *config.Config
	validator *validation.Validator
	repo      *repository.ExerciseFileRepository
	log       *zap.Logger
}

func setup() (*environment, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return nil, err
	}
	log := logger.Get()

	s, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	validator := validation.NewValidator(s)

	root := genRoot
	if root == "" {
		root = cfg.Content.Root
	}
	repo := repository.NewExerciseFileRepository(root, cfg.Loader.Workers, validator, nil, log)

	return &environment{cfg: cfg, validator: validator, repo: repo, log: log}, nil
}

func options() (service.GenerateOptions, error) {
	opts := service.GenerateOptions{
		Count:     genCount,
		Level:     domain.Level(genLevel),
		Domain:    domain.Subject(genDomain),
		Overwrite: genOverwrite,
		DryRun:    genDryRun,
	}
	if genDate != "" {
		date, err := time.Parse(domain.DateLayout, genDate)
		if err != nil {
			return opts, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", genDate)
		}
		opts.Date = date
	}
	return opts, nil
}

func runTemplate(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	seed := genSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	generator := exercisegen.NewTemplateGenerator(seed)
	settings := service.GenerationSettings{MaxRetries: env.cfg.LLM.MaxRetries, Seed: seed}
	return run(cmd, env, generator, settings)
}

func runAI(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	generator, err := exercisegen.NewFromConfig(env.cfg.LLM, env.log)
	if err != nil {
		return err
	}
	settings := service.GenerationSettings{
		MaxRetries:   env.cfg.LLM.MaxRetries,
		RetryDelay:   env.cfg.LLM.RetryDelay,
		DelayBetween: env.cfg.LLM.DelayBetween,
		Seed:         genSeed,
	}
	return run(cmd, env, generator, settings)
}

func run(cmd *cobra.Command, env *environment, generator domain.ExerciseGenerator, settings service.GenerationSettings) error {
	opts, err := options()
	if err != nil {
		return err
	}

	svc := service.NewGenerationService(generator, env.repo, env.validator, settings, env.log)
	report, err := svc.Generate(cmd.Context(), opts)
	if report != nil {
		printReport(cmd, report, opts.DryRun)
	}
	if err != nil {
		return err
	}

	if code := report.ExitCode(); code != 0 {
		return exitError{code: code}
	}
	return nil
}

func printReport(cmd *cobra.Command, report *service.GenerationReport, dryRun bool) {
	for _, outcome := range report.Outcomes {
		req := outcome.Request
		switch {
		case outcome.Err != nil:
			cmd.Printf("ECHEC   %s/%s %s: %v\n", req.Level, req.Domain, req.Date, outcome.Err)
			for _, issue := range outcome.Issues {
				cmd.Printf("   - %s\n", issue)
			}
		case dryRun:
			cmd.Printf("OK      %s (non écrit)\n", outcome.Exercise.Slug)
		default:
			cmd.Printf("OK      %s -> %s\n", outcome.Exercise.Slug, outcome.Path)
		}
	}
	cmd.Printf("Générés: %d | Échecs: %d (%s, run %s)\n", report.Succeeded, report.Failed, report.Generator, report.RunID)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd.SetOut(os.Stdout)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
