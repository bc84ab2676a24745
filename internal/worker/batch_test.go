package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/persona/internal/model"
)

// MockAnalyzer implements Analyzer
type MockAnalyzer struct {
	ShouldError bool
	FailUser    string

	mu    sync.Mutex
	users []string
}

func (m *MockAnalyzer) Run(ctx context.Context, user string) (*model.Report, string, error) {
	m.mu.Lock()
	m.users = append(m.users, user)
	m.mu.Unlock()

	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError || user == m.FailUser {
		return nil, "", errors.New("analysis error")
	}
	return &model.Report{Username: user}, user + "_reddit_persona_report.txt", nil
}

func writeUsersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessUsers(t *testing.T) {
	analyzer := &MockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2, 0, nil)

	users := []string{"spez", "kn0thing", "u/example_user"}
	results := processor.ProcessUsers(context.Background(), users)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.User != users[i] {
			t.Errorf("expected result %d for %s, got %s", i, users[i], res.User)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.User, res.Error)
		}
		if res.Report == nil || res.Path == "" {
			t.Errorf("expected report and path for %s", res.User)
		}
	}
}

func TestBatchProcessor_ProcessUsers_PartialFailure(t *testing.T) {
	analyzer := &MockAnalyzer{FailUser: "kn0thing"}
	processor := NewBatchProcessor(analyzer, 3, 0, nil)

	results := processor.ProcessUsers(context.Background(), []string{"spez", "kn0thing", "other"})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[1].Error == nil {
		t.Error("expected error for kn0thing")
	}
	if results[1].Report != nil {
		t.Error("expected nil report on error")
	}
	if results[0].Error != nil || results[2].Error != nil {
		t.Error("one failure must not affect other users")
	}
}

func TestBatchProcessor_ProcessUsers_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{}, 2, 0, nil)

	results := processor.ProcessUsers(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessUsers_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&MockAnalyzer{}, 2, 0, nil)
	results := processor.ProcessUsers(ctx, []string{"spez", "kn0thing"})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if !errors.Is(res.Error, context.Canceled) {
			t.Errorf("expected context.Canceled for %s, got %v", res.User, res.Error)
		}
	}
}

type deadlineAnalyzer struct{}

func (deadlineAnalyzer) Run(ctx context.Context, user string) (*model.Report, string, error) {
	<-ctx.Done()
	return nil, "", ctx.Err()
}

func TestBatchProcessor_PerUserTimeout(t *testing.T) {
	processor := NewBatchProcessor(deadlineAnalyzer{}, 1, 20*time.Millisecond, nil)

	results := processor.ProcessUsers(context.Background(), []string{"spez"})
	if !errors.Is(results[0].Error, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", results[0].Error)
	}
}

func TestReadUsersFromFile(t *testing.T) {
	content := `spez
# comment
https://www.reddit.com/user/kn0thing/
   
u/example_user   `

	users, err := ReadUsersFromFile(writeUsersFile(t, content))
	if err != nil {
		t.Fatalf("ReadUsersFromFile failed: %v", err)
	}

	expected := []string{"spez", "https://www.reddit.com/user/kn0thing/", "u/example_user"}
	if len(users) != len(expected) {
		t.Fatalf("expected %d users, got %d", len(expected), len(users))
	}

	for i, user := range users {
		if user != expected[i] {
			t.Errorf("expected user %s at index %d, got %s", expected[i], i, user)
		}
	}
}

func TestReadUsersFromFile_Deduplication(t *testing.T) {
	content := "spez\nSpez\nu/spez\nhttps://www.reddit.com/u/SPEZ\nnot a user\nnot a user\n"

	users, err := ReadUsersFromFile(writeUsersFile(t, content))
	if err != nil {
		t.Fatalf("ReadUsersFromFile failed: %v", err)
	}

	expected := []string{"spez", "not a user"}
	if len(users) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, users)
	}
	for i := range expected {
		if users[i] != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, users[i])
		}
	}
}

func TestReadUsersFromFile_NonExistent(t *testing.T) {
	_, err := ReadUsersFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestUserResult_GetError(t *testing.T) {
	r1 := &UserResult{User: "spez", Error: nil}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("analysis failed")
	r2 := &UserResult{User: "spez", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeUsersFile(t, "spez\nkn0thing\n# comment\n\nexample_user\n")

	analyzer := &MockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2, 0, nil)

	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{}, 2, 0, nil)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{}, 2, 0, nil)

	results, err := processor.ProcessFile(context.Background(), writeUsersFile(t, ""))
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty file, got %d", len(results))
	}
}
