package docsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	cjerrors "github.com/Aman-CERP/cjdocs-bridge/internal/errors"
)

// DefaultDocsRepoURL is the upstream documentation tree cloned when no
// override is configured.
const DefaultDocsRepoURL = "https://gitcode.com/Cangjie/cangjie_docs.git"

// GitManager owns the single git checkout at repoDir: clone-or-open, fetch,
// and version resolution (tag, branch, commit, or "latest" = origin/main or
// origin/master, whichever exists). GitSource reads the checked-out HEAD
// tree once GitManager has resolved a version; the two are split the way
// the original splits `repo::GitManager` from the document-tree reader.
type GitManager struct {
	repoDir string
	repoURL string
}

// NewGitManager returns a manager for the checkout at repoDir. An empty
// repoURL falls back to DefaultDocsRepoURL.
func NewGitManager(repoDir, repoURL string) *GitManager {
	if repoURL == "" {
		repoURL = DefaultDocsRepoURL
	}
	return &GitManager{repoDir: repoDir, repoURL: repoURL}
}

// IsCloned reports whether repoDir already holds a git checkout.
func (m *GitManager) IsCloned() bool {
	info, err := os.Stat(filepath.Join(m.repoDir, ".git"))
	return err == nil && info.IsDir()
}

// openOrClone opens the existing checkout (fetching first when fetch is
// true) or clones repoURL into repoDir.
func (m *GitManager) openOrClone(ctx context.Context, fetch bool) (*git.Repository, error) {
	if m.IsCloned() {
		repo, err := git.PlainOpen(m.repoDir)
		if err != nil {
			return nil, cjerrors.IOError("open existing docs checkout", err)
		}
		if fetch {
			if err := fetchAll(ctx, repo); err != nil {
				// Network failures during refresh are non-fatal: fall back
				// to whatever refs are already local.
				return repo, nil
			}
		}
		return repo, nil
	}

	if err := os.MkdirAll(filepath.Dir(m.repoDir), 0755); err != nil {
		return nil, cjerrors.IOError("create docs repo parent directory", err)
	}
	repo, err := git.PlainCloneContext(ctx, m.repoDir, false, &git.CloneOptions{
		URL:        m.repoURL,
		Tags:       git.AllTags,
		RemoteName: "origin",
	})
	if err != nil {
		return nil, cjerrors.NetworkError(fmt.Sprintf("clone docs repo from %s", m.repoURL), err)
	}
	return repo, nil
}

func fetchAll(ctx context.Context, repo *git.Repository) error {
	err := repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Tags:       git.AllTags,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return err
	}
	return nil
}

// ResolveVersion ensures the checkout exists and is up to date, checks out
// version ("latest", a tag, a branch, or a commit hash), and returns the
// resolved label spec.md §4.7 expects on IndexInfo.Version: the tag/commit
// short-hash when detached, or "<branch>(<short-hash>)" otherwise.
func (m *GitManager) ResolveVersion(ctx context.Context, version string) (string, error) {
	repo, err := m.openOrClone(ctx, true)
	if err != nil {
		return "", err
	}
	if err := m.checkout(repo, version); err != nil {
		return "", err
	}
	return resolveAfterCheckout(repo)
}

func (m *GitManager) checkout(repo *git.Repository, version string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return cjerrors.IOError("open docs repo worktree", err)
	}

	if version == "latest" {
		for _, branch := range []string{"main", "master"} {
			remoteRef := plumbing.NewRemoteReferenceName("origin", branch)
			ref, err := repo.Reference(remoteRef, true)
			if err != nil {
				continue
			}
			localRef := plumbing.NewBranchReferenceName(branch)
			if err := m.syncLocalBranch(repo, localRef, ref.Hash()); err != nil {
				return err
			}
			return wt.Checkout(&git.CheckoutOptions{Branch: localRef})
		}
	}

	// Tag.
	if ref, err := repo.Reference(plumbing.NewTagReferenceName(version), true); err == nil {
		return wt.Checkout(&git.CheckoutOptions{Hash: ref.Hash(), Force: true})
	}

	// Remote branch.
	remoteRef := plumbing.NewRemoteReferenceName("origin", version)
	if ref, err := repo.Reference(remoteRef, true); err == nil {
		localRef := plumbing.NewBranchReferenceName(version)
		if err := m.syncLocalBranch(repo, localRef, ref.Hash()); err != nil {
			return err
		}
		return wt.Checkout(&git.CheckoutOptions{Branch: localRef})
	}

	// Commit hash.
	if plumbing.IsHash(version) {
		hash := plumbing.NewHash(version)
		if _, err := repo.CommitObject(hash); err == nil {
			return wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true})
		}
	}

	return cjerrors.NotFound(fmt.Sprintf("docs version %q: not found as tag, branch, or commit", version), nil)
}

// syncLocalBranch points (creating if needed) a local branch ref at hash so
// it tracks the corresponding remote ref, matching the original's
// create/update-then-checkout sequence.
func (m *GitManager) syncLocalBranch(repo *git.Repository, localRef plumbing.ReferenceName, hash plumbing.Hash) error {
	ref := plumbing.NewHashReference(localRef, hash)
	if err := repo.Storer.SetReference(ref); err != nil {
		return cjerrors.IOError("update local branch ref", err)
	}
	return nil
}

// resolveAfterCheckout reports the version label for the checked-out HEAD:
// the matching tag name (or short hash, if none) when detached, otherwise
// "<branch>(<short-hash>)".
func resolveAfterCheckout(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		return "", cjerrors.IOError("read docs repo HEAD", err)
	}
	shortHash := head.Hash().String()[:7]

	if head.Name() == plumbing.HEAD {
		if tagName := findTagForHash(repo, head.Hash()); tagName != "" {
			return tagName, nil
		}
		return shortHash, nil
	}

	branch := head.Name().Short()
	return fmt.Sprintf("%s(%s)", branch, shortHash), nil
}

// findTagForHash returns the name of the first tag pointing at hash, or ""
// if none does.
func findTagForHash(repo *git.Repository, hash plumbing.Hash) string {
	tags, err := repo.Tags()
	if err != nil {
		return ""
	}
	for {
		ref, err := tags.Next()
		if err != nil {
			return ""
		}
		if ref.Hash() == hash {
			return ref.Name().Short()
		}
	}
}
