package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"jementraine/internal/domain"
	"jementraine/internal/schema"
	"jementraine/internal/util"
	"jementraine/internal/validation"

	"go.uber.org/zap"
)

// GenerateOptions selects what a generation run produces.
type GenerateOptions struct {
	Count     int
	Level     domain.Level   // empty rotates through the schema levels
	Domain    domain.Subject // empty picks by domain weight
	Date      time.Time      // publication date of the first exercises
	Overwrite bool
	DryRun    bool // validate only, write nothing
}

// GenerationSettings holds the retry policy of a run.
type GenerationSettings struct {
	MaxRetries   int
	RetryDelay   time.Duration
	DelayBetween time.Duration
	Seed         int64 // zero means time-based
}

// GenerationOutcome is the fate of one requested exercise.
type GenerationOutcome struct {
	Request  domain.GenerationRequest
	Exercise *domain.Exercise
	Path     string
	Attempts int
	Issues   []domain.Issue // errors of the last rejected candidate
	Err      error
}

// GenerationReport summarises a run.
type GenerationReport struct {
	RunID     string
	Generator string
	Outcomes  []GenerationOutcome
	Succeeded int
	Failed    int
}

// ExitCode is 1 when at least one exercise could not be produced.
func (r *GenerationReport) ExitCode() int {
	if r.Failed > 0 {
		return 1
	}
	return 0
}

// GenerationService produces new exercise files through an ExerciseGenerator.
// Every candidate goes through the Validator before it is written.
type GenerationService interface {
	Generate(ctx context.Context, opts GenerateOptions) (*GenerationReport, error)
}

type generationService struct {
	generator domain.ExerciseGenerator
	repo      domain.ExerciseRepository
	validator *validation.Validator
	schema    *schema.Schema
	settings  GenerationSettings
	rng       *rand.Rand
	logger    *zap.Logger
}

// NewGenerationService creates a new instance of generationService.
func NewGenerationService(
	generator domain.ExerciseGenerator,
	repo domain.ExerciseRepository,
	validator *validation.Validator,
	settings GenerationSettings,
	logger *zap.Logger,
) GenerationService {
	if settings.MaxRetries < 1 {
		settings.MaxRetries = 1
	}
	seed := settings.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &generationService{
		generator: generator,
		repo:      repo,
		validator: validator,
		schema:    validator.Schema(),
		settings:  settings,
		rng:       rand.New(rand.NewSource(seed)),
		logger:    logger,
	}
}

// Generate implements GenerationService. Per-exercise failures are recorded in
// the report; only invalid options, a configuration error or cancellation end
// the run early.
func (s *generationService) Generate(ctx context.Context, opts GenerateOptions) (*GenerationReport, error) {
	if opts.Count < 1 {
		return nil, domain.NewInvalidInputError("count must be at least 1")
	}
	if opts.Level != "" {
		if _, ok := s.schema.Level(opts.Level); !ok {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown level %q", opts.Level))
		}
	}
	if opts.Domain != "" {
		if _, ok := s.schema.Domain(opts.Domain); !ok {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown domain %q", opts.Domain))
		}
	}
	if opts.Date.IsZero() {
		opts.Date = time.Now()
	}

	report := &GenerationReport{RunID: util.NewULID(), Generator: s.generator.Name()}
	log := s.logger.With(zap.String("run_id", report.RunID), zap.String("generator", report.Generator))
	log.Info("Starting exercise generation", zap.Int("count", opts.Count),
		zap.String("level", string(opts.Level)), zap.String("domain", string(opts.Domain)), zap.Bool("dry_run", opts.DryRun))

	for i := 0; i < opts.Count; i++ {
		req, err := s.plan(i, opts)
		if err != nil {
			return report, err
		}

		outcome, err := s.produce(ctx, log.With(zap.Int("index", i+1)), req, opts)
		if err != nil {
			return report, err
		}
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}

		if i < opts.Count-1 {
			if err := sleepContext(ctx, s.settings.DelayBetween); err != nil {
				return report, err
			}
		}
	}

	log.Info("Exercise generation finished", zap.Int("succeeded", report.Succeeded), zap.Int("failed", report.Failed))
	return report, nil
}

// plan fills in the request for the i-th exercise of a run. Levels rotate and
// the date moves one day forward after each full rotation.
func (s *generationService) plan(i int, opts GenerateOptions) (domain.GenerationRequest, error) {
	levels := s.schema.LevelNames()
	level := opts.Level
	if level == "" {
		level = levels[i%len(levels)]
	}
	tier, _ := s.schema.Level(level)

	subject := opts.Domain
	if subject == "" {
		picked, ok := s.pickDomain()
		if !ok {
			return domain.GenerationRequest{}, domain.NewGenerationFailedError(
				fmt.Sprintf("generator %s supports no weighted domain", s.generator.Name()), nil)
		}
		subject = picked
	}
	area, _ := s.schema.Domain(subject)

	date := opts.Date.AddDate(0, 0, i/len(levels))

	skill := area.Label
	if skills := area.Skills[level]; len(skills) > 0 {
		skill = skills[s.rng.Intn(len(skills))]
	}
	kind := ""
	if len(area.Types) > 0 {
		kind = area.Types[s.rng.Intn(len(area.Types))]
	}

	return domain.GenerationRequest{
		Date:         domain.Date(date.Format(domain.DateLayout)),
		Level:        level,
		Domain:       subject,
		Type:         kind,
		Skill:        skill,
		Theme:        util.SeasonalTheme(date),
		MinQuestions: tier.Questions.Min,
		MaxQuestions: tier.Questions.Max,
		DomainLabel:  area.Label,
		LevelStyle:   tier.Style,
	}, nil
}

// pickDomain draws a domain proportionally to its weight, among those the
// generator supports. Zero-weight domains are never drawn.
func (s *generationService) pickDomain() (domain.Subject, bool) {
	restricted, _ := s.generator.(domain.SubjectRestricted)

	var candidates []schema.Domain
	total := 0
	for _, d := range s.schema.Domains {
		if d.Weight <= 0 || (restricted != nil && !restricted.Supports(d.Name)) {
			continue
		}
		candidates = append(candidates, d)
		total += d.Weight
	}
	if total == 0 {
		return "", false
	}

	r := s.rng.Intn(total)
	for _, d := range candidates {
		if r < d.Weight {
			return d.Name, true
		}
		r -= d.Weight
	}
	return candidates[len(candidates)-1].Name, true
}

func (s *generationService) produce(ctx context.Context, log *zap.Logger, req domain.GenerationRequest, opts GenerateOptions) (GenerationOutcome, error) {
	outcome := GenerationOutcome{Request: req}
	log = log.With(zap.String("level", string(req.Level)), zap.String("domain", string(req.Domain)), zap.String("skill", req.Skill))

	var lastErr error
	for attempt := 1; attempt <= s.settings.MaxRetries; attempt++ {
		outcome.Attempts = attempt

		exercise, issues, err := s.attempt(ctx, req)
		if err == nil {
			outcome.Exercise = exercise
			outcome.Issues = nil
			lastErr = nil
			break
		}
		if domain.HasCode(err, domain.ErrConfiguration) {
			return outcome, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcome, ctxErr
		}

		outcome.Issues = issues
		lastErr = err
		log.Warn("Generation attempt failed",
			zap.Int("attempt", attempt), zap.Int("max_attempts", s.settings.MaxRetries),
			zap.Stringers("issues", issues), zap.Error(err))

		if attempt < s.settings.MaxRetries {
			if err := sleepContext(ctx, s.settings.RetryDelay); err != nil {
				return outcome, err
			}
		}
	}

	if lastErr != nil {
		outcome.Err = domain.NewGenerationFailedError(
			fmt.Sprintf("no valid exercise after %d attempts", outcome.Attempts), lastErr)
		log.Error("Giving up on exercise", zap.Error(outcome.Err))
		return outcome, nil
	}

	if opts.DryRun {
		log.Info("Generated exercise (dry run)", zap.String("slug", outcome.Exercise.Slug), zap.Int("attempts", outcome.Attempts))
		return outcome, nil
	}

	path, err := s.repo.Save(ctx, outcome.Exercise, opts.Overwrite)
	if err != nil {
		outcome.Err = err
		log.Error("Failed to save generated exercise", zap.String("slug", outcome.Exercise.Slug), zap.Error(err))
		return outcome, nil
	}
	outcome.Path = path
	log.Info("Generated exercise", zap.String("slug", outcome.Exercise.Slug), zap.String("path", path), zap.Int("attempts", outcome.Attempts))
	return outcome, nil
}

// attempt asks the generator once and checks the candidate. A candidate that
// does not match the requested level, domain and date is rejected too.
func (s *generationService) attempt(ctx context.Context, req domain.GenerationRequest) (*domain.Exercise, []domain.Issue, error) {
	doc, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	exercise, result := s.validator.Decode(doc)
	if !result.Valid {
		return nil, result.Errors, domain.NewGenerationFailedError(
			fmt.Sprintf("candidate rejected with %d error(s)", len(result.Errors)), nil)
	}

	var issues []domain.Issue
	if exercise.Level != req.Level {
		issues = append(issues, domain.Issue{Field: "level", Message: fmt.Sprintf("attendu %s, reçu %s", req.Level, exercise.Level)})
	}
	if exercise.Domain != req.Domain {
		issues = append(issues, domain.Issue{Field: "domain", Message: fmt.Sprintf("attendu %s, reçu %s", req.Domain, exercise.Domain)})
	}
	if exercise.Date != req.Date {
		issues = append(issues, domain.Issue{Field: "date", Message: fmt.Sprintf("attendu %s, reçu %s", req.Date, exercise.Date)})
	}
	if len(issues) > 0 {
		return nil, issues, domain.NewGenerationFailedError("candidate does not match the request", nil)
	}
	return exercise, nil, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
