package services

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"mdx-wiki/pkg/config"
)

// GitHistory answers HistoryLookup queries with `git log` run in Dir.
type GitHistory struct {
	Dir string
}

func NewGitHistory(dir string) *GitHistory {
	return &GitHistory{Dir: dir}
}

// FirstAndLastChange returns the commit time of the earliest add and of the
// latest modification of path. Without a modification, Updated equals Created.
func (g *GitHistory) FirstAndLastChange(ctx context.Context, path string) (History, error) {
	added, err := g.commitTimes(ctx, "A", path)
	if err != nil {
		return History{}, err
	}
	modified, err := g.commitTimes(ctx, "M", path)
	if err != nil {
		return History{}, err
	}

	var h History
	if len(added) > 0 {
		// git log lists newest first
		h.Created = &added[len(added)-1]
	}
	if len(modified) > 0 {
		h.Updated = &modified[0]
	} else {
		h.Updated = h.Created
	}
	return h, nil
}

func (g *GitHistory) commitTimes(ctx context.Context, filter, path string) ([]time.Time, error) {
	cmd := exec.CommandContext(ctx, "git", "log", "--diff-filter="+filter, "--format=%cI", "--", path)
	cmd.Dir = g.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git log %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	var times []time.Time
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, line)
		if err != nil {
			return nil, fmt.Errorf("git log %s: bad timestamp %q: %w", path, line, err)
		}
		times = append(times, t)
	}
	return times, sc.Err()
}

// ExecuteGitWithToken runs git in dir, substituting the remote name with an
// authenticated URL. Output is scrubbed of the token.
func ExecuteGitWithToken(ctx context.Context, dir, token string, args ...string) (string, error) {
	cmdGetUrl := exec.CommandContext(ctx, "git", "remote", "get-url", config.GitRemote)
	cmdGetUrl.Dir = dir
	outUrl, err := cmdGetUrl.Output()
	if err != nil {
		return "Failed to get remote url", err
	}
	remoteUrl := strings.TrimSpace(string(outUrl))
	u, err := url.Parse(remoteUrl)
	if err != nil {
		return "Invalid remote url", err
	}
	u.User = url.UserPassword("oauth2", token)
	authenticatedUrl := u.String()

	newArgs := make([]string, len(args))
	copy(newArgs, args)
	for i, v := range newArgs {
		if v == config.GitRemote {
			newArgs[i] = authenticatedUrl
		}
	}

	cmd := exec.CommandContext(ctx, "git", newArgs...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	safeLog := strings.ReplaceAll(string(output), authenticatedUrl, remoteUrl)
	if token != "" {
		safeLog = strings.ReplaceAll(safeLog, token, "***")
	}
	return safeLog, err
}

// SyncRepo pulls the configured branch into the content repository.
func SyncRepo(ctx context.Context, token string) (string, error) {
	return ExecuteGitWithToken(ctx, config.RepoPath, token, "pull", config.GitRemote, config.GitBranch)
}
