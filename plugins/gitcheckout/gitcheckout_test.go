package gitcheckout

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	kite "github.com/kiteci/kite"
	"github.com/kiteci/kite/internal/artifacts"
)

func initGitRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644))
	_, err = wt.Add("README.md")
	require.NoError(t, err)

	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "kite", Email: "kite@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir
}

func execContext(t *testing.T, workspace string) *kite.ExecutionContext {
	t.Helper()
	view := artifacts.NewView(artifacts.NewRegistry(), nil)
	return kite.NewExecutionContext(workspace, nil, nil, view)
}

func TestBodyClonesMissingDestination(t *testing.T) {
	source := initGitRepo(t)
	workspace := t.TempDir()

	body := Body(Options{URL: source, Destination: "checkout"})
	err := body(context.Background(), execContext(t, workspace))
	require.NoError(t, err)

	contents, err := os.ReadFile(filepath.Join(workspace, "checkout", "README.md"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(contents))
}

func TestBodyIsSatisfiedOnSecondRun(t *testing.T) {
	source := initGitRepo(t)
	workspace := t.TempDir()

	opts := Options{URL: source, Destination: "checkout"}
	body := Body(opts)

	require.NoError(t, body(context.Background(), execContext(t, workspace)))

	dest := filepath.Join(workspace, "checkout")
	marker := filepath.Join(dest, ".git", "HEAD")
	info, err := os.Stat(marker)
	require.NoError(t, err)
	firstModTime := info.ModTime()

	require.NoError(t, body(context.Background(), execContext(t, workspace)))

	info, err = os.Stat(marker)
	require.NoError(t, err)
	require.Equal(t, firstModTime, info.ModTime(), "satisfied checkout should not be recloned")
}

func TestBodyReclonesOnURLDrift(t *testing.T) {
	original := initGitRepo(t)
	replacement := initGitRepo(t)
	workspace := t.TempDir()

	require.NoError(t, Body(Options{URL: original, Destination: "checkout"})(context.Background(), execContext(t, workspace)))

	err := Body(Options{URL: replacement, Destination: "checkout"})(context.Background(), execContext(t, workspace))
	require.NoError(t, err)

	repo, err := git.PlainOpen(filepath.Join(workspace, "checkout"))
	require.NoError(t, err)
	remote, err := repo.Remote("origin")
	require.NoError(t, err)
	require.Equal(t, replacement, remote.Config().URLs[0])
}

func TestBodyReplacesNonGitDirectory(t *testing.T) {
	source := initGitRepo(t)
	workspace := t.TempDir()
	dest := filepath.Join(workspace, "checkout")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "file.txt"), []byte("not a repo"), 0o644))

	err := Body(Options{URL: source, Destination: "checkout"})(context.Background(), execContext(t, workspace))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dest, "README.md"))
	require.NoError(t, err)
}

func TestBodyRejectsEmptyURL(t *testing.T) {
	workspace := t.TempDir()
	err := Body(Options{})(context.Background(), execContext(t, workspace))
	require.Error(t, err)
}

func TestSegmentBuildsRunnableSegment(t *testing.T) {
	source := initGitRepo(t)
	seg, err := Segment("checkout-repo", Options{URL: source, Destination: "checkout"})
	require.NoError(t, err)
	require.Equal(t, "checkout-repo", seg.Name())
	require.Equal(t, "checkout", seg.Outputs()["checkout"])

	workspace := t.TempDir()
	require.NoError(t, seg.Execute()(context.Background(), execContext(t, workspace)))
}
