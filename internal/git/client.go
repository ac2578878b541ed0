// Package git wraps go-git for the pipeline runner: cloning the project
// repository, checking out auxiliary resource branches into the
// workspace, and reporting working-tree cleanliness for the docs check.
package git

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	appcfg "git.home.luguber.info/inful/relbuilder/internal/config"
	"git.home.luguber.info/inful/relbuilder/internal/logfields"
)

// Client handles Git operations rooted in a workspace directory.
type Client struct {
	workspaceDir string
}

// NewClient creates a new Git client with the specified workspace directory.
func NewClient(workspaceDir string) *Client { return &Client{workspaceDir: workspaceDir} }

// CloneRepository clones the project repository into the workspace and
// returns the checkout path.
func (c *Client) CloneRepository(repo appcfg.Repository) (string, error) {
	repoPath := filepath.Join(c.workspaceDir, repo.Name)
	slog.Debug("Cloning repository",
		logfields.Repository(repo.Name),
		logfields.Branch(repo.Branch),
		logfields.Path(repoPath))

	if err := os.RemoveAll(repoPath); err != nil {
		return "", fmt.Errorf("failed to remove existing directory: %w", err)
	}

	cloneOptions := &git.CloneOptions{URL: repo.URL}
	if repo.Branch != "" {
		cloneOptions.ReferenceName = plumbing.ReferenceName("refs/heads/" + repo.Branch)
		cloneOptions.SingleBranch = true
	}
	if repo.Auth != nil {
		auth, err := c.getAuthentication(repo.Auth)
		if err != nil {
			return "", fmt.Errorf("failed to setup authentication: %w", err)
		}
		cloneOptions.Auth = auth
	}

	repository, err := git.PlainClone(repoPath, false, cloneOptions)
	if err != nil {
		return "", classifyCloneError(repo.URL, err)
	}

	if ref, herr := repository.Head(); herr == nil {
		slog.Info("Repository cloned",
			logfields.Repository(repo.Name),
			slog.String("commit", ref.Hash().String()[:8]),
			logfields.Path(repoPath))
	} else {
		slog.Info("Repository cloned", logfields.Repository(repo.Name), logfields.Path(repoPath))
	}

	return repoPath, nil
}

// CheckoutResources clones each auxiliary resource branch into its
// destination under the workspace (e.g. a branch carrying test videos).
func (c *Client) CheckoutResources(repo appcfg.Repository) error {
	for _, res := range repo.Resources {
		dest := filepath.Join(c.workspaceDir, res.Dest)
		slog.Info("Checking out resource branch",
			logfields.Branch(res.Branch),
			logfields.Path(dest))

		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("failed to clear resource destination %s: %w", dest, err)
		}

		opts := &git.CloneOptions{
			URL:           repo.URL,
			ReferenceName: plumbing.ReferenceName("refs/heads/" + res.Branch),
			SingleBranch:  true,
			Depth:         1,
		}
		if repo.Auth != nil {
			auth, err := c.getAuthentication(repo.Auth)
			if err != nil {
				return fmt.Errorf("failed to setup authentication: %w", err)
			}
			opts.Auth = auth
		}

		if _, err := git.PlainClone(dest, false, opts); err != nil {
			return classifyCloneError(repo.URL, fmt.Errorf("resource branch %s: %w", res.Branch, err))
		}
	}
	return nil
}
