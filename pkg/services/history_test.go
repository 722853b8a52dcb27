package services

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestHistoryCacheMemoizes(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubHistory{entries: map[string]History{"a.mdx": {Created: &created, Updated: &created}}}
	cache := NewHistoryCache(stub)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := cache.FirstAndLastChange(ctx, "a.mdx")
			if err != nil || h.Created == nil || !h.Created.Equal(created) {
				t.Errorf("FirstAndLastChange() = %+v, %v", h, err)
			}
		}()
	}
	wg.Wait()

	if _, err := cache.FirstAndLastChange(ctx, "a.mdx"); err != nil {
		t.Fatal(err)
	}
	if stub.calls > 8 || stub.calls < 1 {
		t.Fatalf("calls = %d", stub.calls)
	}
	before := stub.calls

	if _, err := cache.FirstAndLastChange(ctx, "a.mdx"); err != nil {
		t.Fatal(err)
	}
	if stub.calls != before {
		t.Fatalf("cached lookup hit the backend: %d -> %d", before, stub.calls)
	}

	cache.Invalidate()
	if _, err := cache.FirstAndLastChange(ctx, "a.mdx"); err != nil {
		t.Fatal(err)
	}
	if stub.calls != before+1 {
		t.Fatalf("lookup after Invalidate did not hit the backend")
	}
}

func TestHistoryCacheDoesNotCacheErrors(t *testing.T) {
	stub := &stubHistory{fail: map[string]bool{"x.mdx": true}}
	cache := NewHistoryCache(stub)
	for i := 0; i < 2; i++ {
		if _, err := cache.FirstAndLastChange(context.Background(), "x.mdx"); err == nil {
			t.Fatal("expected error")
		}
	}
	if stub.calls != 2 {
		t.Fatalf("calls = %d, want 2", stub.calls)
	}
}

func runGit(t *testing.T, dir string, env []string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func TestGitHistory(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	repo := t.TempDir()
	ident := []string{
		"GIT_AUTHOR_NAME=Wiki Test", "GIT_AUTHOR_EMAIL=wiki@example.com",
		"GIT_COMMITTER_NAME=Wiki Test", "GIT_COMMITTER_EMAIL=wiki@example.com",
		"GIT_CONFIG_NOSYSTEM=1", "HOME=" + repo,
	}
	at := func(ts string) []string {
		return append(append([]string{}, ident...), "GIT_AUTHOR_DATE="+ts, "GIT_COMMITTER_DATE="+ts)
	}

	runGit(t, repo, ident, "init", "-q")
	writeContent(t, repo, "data/wiki/a.en.mdx", article("A"))
	writeContent(t, repo, "data/wiki/b.en.mdx", article("B"))
	runGit(t, repo, ident, "add", ".")
	runGit(t, repo, at("2024-01-01T10:00:00+00:00"), "commit", "-q", "-m", "add")

	writeContent(t, repo, "data/wiki/a.en.mdx", article("A2"))
	runGit(t, repo, ident, "add", ".")
	runGit(t, repo, at("2024-02-01T10:00:00+00:00"), "commit", "-q", "-m", "edit")

	g := NewGitHistory(repo)
	ctx := context.Background()

	a, err := g.FirstAndLastChange(ctx, filepath.Join("data", "wiki", "a.en.mdx"))
	if err != nil {
		t.Fatalf("FirstAndLastChange(a) error = %v", err)
	}
	if a.Created == nil || a.Created.UTC().Format(time.RFC3339) != "2024-01-01T10:00:00Z" {
		t.Errorf("a.Created = %v", a.Created)
	}
	if a.Updated == nil || a.Updated.UTC().Format(time.RFC3339) != "2024-02-01T10:00:00Z" {
		t.Errorf("a.Updated = %v", a.Updated)
	}

	b, err := g.FirstAndLastChange(ctx, filepath.Join("data", "wiki", "b.en.mdx"))
	if err != nil {
		t.Fatalf("FirstAndLastChange(b) error = %v", err)
	}
	if b.Created == nil || b.Updated == nil || !b.Updated.Equal(*b.Created) {
		t.Errorf("b without modification should have updated == created: %+v", b)
	}

	writeContent(t, repo, "data/wiki/new.en.mdx", article("New"))
	n, err := g.FirstAndLastChange(ctx, filepath.Join("data", "wiki", "new.en.mdx"))
	if err != nil {
		t.Fatalf("FirstAndLastChange(new) error = %v", err)
	}
	if n.Created != nil || n.Updated != nil {
		t.Errorf("untracked file should have no history: %+v", n)
	}
}

func TestGitHistoryOutsideRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	if _, err := NewGitHistory(dir).FirstAndLastChange(context.Background(), "x.mdx"); err == nil {
		t.Fatal("expected error outside a repository")
	}
}
