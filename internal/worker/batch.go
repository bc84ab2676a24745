package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/persona/internal/model"
	"github.com/ppiankov/persona/internal/source"
)

// Analyzer runs one analysis and writes its report
type Analyzer interface {
	Run(ctx context.Context, user string) (*model.Report, string, error)
}

// AnalyzeJob represents one user analysis
type AnalyzeJob struct {
	Index    int // Position in the input list
	User     string
	Analyzer Analyzer
	Timeout  time.Duration
}

// Execute executes the analysis job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	start := time.Now()
	report, path, err := j.Analyzer.Run(ctx, j.User)
	return &UserResult{
		Index:    j.Index,
		User:     j.User,
		Report:   report,
		Path:     path,
		Error:    err,
		Duration: time.Since(start),
	}
}

// UserResult represents the result of one user analysis
type UserResult struct {
	Index    int
	User     string
	Report   *model.Report
	Path     string // Written report file, empty on failure
	Error    error
	Duration time.Duration
}

// GetError returns the error from the analysis
func (r *UserResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple users concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	timeout     time.Duration // Per user; zero means none
	logger      *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int, timeout time.Duration, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      logger,
	}
}

// ProcessUsers analyzes users concurrently and returns one result per user,
// in input order
func (b *BatchProcessor) ProcessUsers(ctx context.Context, users []string) []*UserResult {
	if len(users) == 0 {
		return []*UserResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, user := range users {
		job := &AnalyzeJob{
			Index:    i,
			User:     user,
			Analyzer: b.analyzer,
			Timeout:  b.timeout,
		}
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()

	ordered := make([]*UserResult, len(users))
	for _, result := range results {
		r := result.(*UserResult)
		ordered[r.Index] = r
		if r.Error != nil {
			b.logger.Warn("analysis failed", zap.String("user", r.User), zap.Error(r.Error))
		} else {
			b.logger.Info("analysis done", zap.String("user", r.User), zap.String("path", r.Path), zap.Duration("took", r.Duration))
		}
	}

	// Jobs never started because the batch was cancelled
	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &UserResult{Index: i, User: users[i], Error: err}
		}
	}

	return ordered
}

// ProcessFile reads users from a file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*UserResult, error) {
	users, err := ReadUsersFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}

	return b.ProcessUsers(ctx, users), nil
}

// ReadUsersFromFile reads usernames or profile URLs from a file, one per
// line. Blank lines and # comments are skipped; entries naming the same
// user are kept once.
func ReadUsersFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var users []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Invalid entries are kept so their error shows up in the results
		key := line
		if name, err := source.ParseUsername(line); err == nil {
			key = strings.ToLower(name)
		}

		if !seen[key] {
			seen[key] = true
			users = append(users, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return users, nil
}
