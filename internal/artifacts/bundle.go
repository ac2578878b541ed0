// Package artifacts collects build outputs into named zip bundles and
// publishes them to a content-addressable store.
package artifacts

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	appcfg "git.home.luguber.info/inful/relbuilder/internal/config"
	rberrors "git.home.luguber.info/inful/relbuilder/internal/errors"
	"git.home.luguber.info/inful/relbuilder/internal/logfields"
)

// Built describes one produced bundle.
type Built struct {
	Name  string
	Path  string // zip location on disk
	Files int
	Size  int64
}

// BuildBundles creates every configured bundle under outDir. Bundles are
// independent, so they build concurrently; the first failure cancels the
// rest.
func BuildBundles(ctx context.Context, root, outDir string, bundles []appcfg.Bundle) ([]Built, error) {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, rberrors.WorkspaceError("create artifact dir", err)
	}

	results := make([]Built, len(bundles))
	g, gctx := errgroup.WithContext(ctx)
	for i := range bundles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b := bundles[i]
			built, err := buildBundle(root, outDir, b)
			if err != nil {
				return rberrors.ArtifactBundleError(b.Name, err)
			}
			results[i] = *built
			slog.Info("Artifact bundle built",
				logfields.Artifact(b.Name),
				slog.Int("files", built.Files),
				slog.Int64("bytes", built.Size))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// buildBundle zips all files matching the include globs, relative to root.
// Members are sorted so identical inputs produce identical archives.
func buildBundle(root, outDir string, bundle appcfg.Bundle) (*Built, error) {
	files, err := matchIncludes(root, bundle.Include)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files matched include globs %v", bundle.Include)
	}
	sort.Strings(files)

	zipPath := filepath.Join(outDir, bundle.Name+".zip")
	out, err := os.Create(zipPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", zipPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, rel := range files {
		if err := addFile(zw, root, rel); err != nil {
			zw.Close()
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize %s: %w", zipPath, err)
	}

	info, err := os.Stat(zipPath)
	if err != nil {
		return nil, err
	}
	return &Built{Name: bundle.Name, Path: zipPath, Files: len(files), Size: info.Size()}, nil
}

func addFile(zw *zip.Writer, root, rel string) error {
	f, err := os.Open(filepath.Join(root, rel))
	if err != nil {
		return fmt.Errorf("open %s: %w", rel, err)
	}
	defer f.Close()

	w, err := zw.Create(filepath.ToSlash(rel))
	if err != nil {
		return fmt.Errorf("add %s: %w", rel, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// matchIncludes resolves include globs against root. A trailing "/**"
// matches everything under the named directory recursively.
func matchIncludes(root string, globs []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(rel string) {
		if !seen[rel] {
			seen[rel] = true
			files = append(files, rel)
		}
	}

	for _, glob := range globs {
		if strings.HasSuffix(glob, "/**") {
			base := strings.TrimSuffix(glob, "/**")
			err := filepath.WalkDir(filepath.Join(root, base), func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					return nil
				}
				rel, rerr := filepath.Rel(root, path)
				if rerr != nil {
					return rerr
				}
				add(filepath.ToSlash(rel))
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walk %s: %w", glob, err)
			}
			continue
		}

		matches, err := filepath.Glob(filepath.Join(root, glob))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", glob, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			rel, rerr := filepath.Rel(root, m)
			if rerr != nil {
				return nil, rerr
			}
			add(filepath.ToSlash(rel))
		}
	}
	return files, nil
}
