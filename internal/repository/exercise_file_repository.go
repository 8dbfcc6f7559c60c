package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"jementraine/internal/domain"
	"jementraine/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FileExtension is the serialization extension of exercise files.
const FileExtension = ".json"

// FileReport is the outcome of reading and validating one content file.
type FileReport struct {
	Path string
	// ParseError is set when the file could not be read or is not JSON.
	ParseError error
	Result     validation.Result
	// Exercise is set only for valid records.
	Exercise *domain.Exercise
}

// Valid reports whether the file holds a valid record.
func (r FileReport) Valid() bool {
	return r.ParseError == nil && r.Exercise != nil
}

// ErrorCount counts a parse failure as one error.
func (r FileReport) ErrorCount() int {
	if r.ParseError != nil {
		return 1
	}
	return len(r.Result.Errors)
}

// Issues returns the errors of the file, a parse failure included.
func (r FileReport) Issues() []domain.Issue {
	if r.ParseError != nil {
		return []domain.Issue{{Message: "JSON invalide: " + r.ParseError.Error()}}
	}
	return r.Result.Errors
}

// ExerciseFileRepository is the flat-file content store rooted at one directory,
// laid out as <root>/<year>/<month>/<slug>.json.
type ExerciseFileRepository struct {
	root      string
	workers   int
	validator *validation.Validator
	reporter  domain.IssueReporter
	logger    *zap.Logger
}

// NewExerciseFileRepository creates a new file repository. workers bounds the
// number of files parsed concurrently.
func NewExerciseFileRepository(root string, workers int, validator *validation.Validator, reporter domain.IssueReporter, logger *zap.Logger) *ExerciseFileRepository {
	if workers < 1 {
		workers = 1
	}
	return &ExerciseFileRepository{
		root:      root,
		workers:   workers,
		validator: validator,
		reporter:  reporter,
		logger:    logger,
	}
}

// Root returns the content root directory.
func (r *ExerciseFileRepository) Root() string {
	return r.root
}

// LoadAll returns every valid record under the root in traversal order.
// Unparseable and invalid files are reported and skipped; only context
// cancellation and walk failures are returned.
func (r *ExerciseFileRepository) LoadAll(ctx context.Context) ([]*domain.Exercise, error) {
	reports, err := r.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	exercises := make([]*domain.Exercise, 0, len(reports))
	for _, report := range reports {
		if report.Valid() {
			exercises = append(exercises, report.Exercise)
			continue
		}
		if r.reporter != nil {
			r.reporter.Report(report.Path, report.Issues())
		}
	}

	r.logger.Debug("Loaded exercises",
		zap.String("root", r.root),
		zap.Int("files", len(reports)),
		zap.Int("valid", len(exercises)),
	)
	return exercises, nil
}

// ScanAll reads and validates every file under the root without filtering.
// Reports are returned in traversal order. A missing root yields no reports.
func (r *ExerciseFileRepository) ScanAll(ctx context.Context) ([]FileReport, error) {
	paths, err := r.listFiles()
	if err != nil {
		return nil, err
	}

	reports := make([]FileReport, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = r.scanFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *ExerciseFileRepository) listFiles() ([]string, error) {
	if _, err := os.Stat(r.root); errors.Is(err, fs.ErrNotExist) {
		r.logger.Debug("Content root does not exist", zap.String("root", r.root))
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == r.root {
				return err
			}
			r.logger.Warn("Skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), FileExtension) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content root %s: %w", r.root, err)
	}
	return paths, nil
}

func (r *ExerciseFileRepository) scanFile(path string) FileReport {
	report := FileReport{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		report.ParseError = err
		return report
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		report.ParseError = err
		return report
	}

	report.Exercise, report.Result = r.validator.Decode(doc)
	return report
}

// PathFor returns the file path a record is stored at.
func (r *ExerciseFileRepository) PathFor(exercise *domain.Exercise) (string, error) {
	if errs := r.validator.ValidateSlug(exercise.Slug); len(errs) > 0 {
		return "", domain.NewInvalidInputError(errs.Error())
	}
	date, err := exercise.Date.Time()
	if err != nil {
		return "", domain.NewInvalidInputError(fmt.Sprintf("invalid exercise date %q", exercise.Date))
	}
	return filepath.Join(
		r.root,
		fmt.Sprintf("%04d", date.Year()),
		fmt.Sprintf("%02d", int(date.Month())),
		exercise.Slug+FileExtension,
	), nil
}

// Save writes the record as 2-space indented JSON. Without overwrite an
// existing file is left untouched and ErrExerciseExists is returned.
func (r *ExerciseFileRepository) Save(ctx context.Context, exercise *domain.Exercise, overwrite bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := r.PathFor(exercise)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(exercise, "", "  ")
	if err != nil {
		return "", domain.NewInternalError("failed to encode exercise", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", domain.NewInternalError("failed to create exercise directory", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", domain.NewExerciseExistsError(path)
		}
		return "", domain.NewInternalError("failed to open exercise file", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", domain.NewInternalError("failed to write exercise file", err)
	}
	if err := f.Close(); err != nil {
		return "", domain.NewInternalError("failed to close exercise file", err)
	}

	r.logger.Info("Saved exercise", zap.String("slug", exercise.Slug), zap.String("path", path))
	return path, nil
}

// LogIssueReporter sends loader diagnostics to zap.
type LogIssueReporter struct {
	logger *zap.Logger
}

func NewLogIssueReporter(logger *zap.Logger) *LogIssueReporter {
	return &LogIssueReporter{logger: logger}
}

func (r *LogIssueReporter) Report(path string, issues []domain.Issue) {
	messages := make([]string, len(issues))
	for i, issue := range issues {
		messages[i] = issue.String()
	}
	r.logger.Warn("Skipping exercise file",
		zap.String("path", path),
		zap.Int("issue_count", len(issues)),
		zap.Strings("issues", messages),
	)
}
