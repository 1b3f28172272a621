package install

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/log"
)

// Pool is the shared directory of built packages, one directory per
// (name, version), referenced by any number of workspace bindings.
//
// Concurrent requests for the same uninstalled version must not both build
// it. The pool enforces this with two layers: an in-process mutex per
// (name, version) serializes tasks in this process, and the store's atomic
// claim row decides the single builder across processes. Losers of the
// claim join the winner's result.
type Pool struct {
	installed domain.InstalledPackageRepository
	root      string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPool creates a pool rooted at the given directory.
func NewPool(installed domain.InstalledPackageRepository, root string) *Pool {
	return &Pool{
		installed: installed,
		root:      root,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Dir returns the pool directory for a (name, version).
func (p *Pool) Dir(name, ver string) string {
	return filepath.Join(p.root, name, ver)
}

func (p *Pool) lock(name, ver string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := name + "@" + ver
	l, ok := p.locks[key]
	if !ok {
		l = &sync.Mutex{}
		p.locks[key] = l
	}
	return l
}

// Ensure makes the pool entry for (name, version) exist, running stage to
// populate the directory when this caller wins the claim. It returns the
// pool directory and whether this call physically built the entry.
// A failed stage releases the claim and removes the directory, so a later
// request can retry the build.
func (p *Pool) Ensure(name, ver string, stage func(destDir string) error) (string, bool, error) {
	l := p.lock(name, ver)
	l.Lock()
	defer l.Unlock()

	dir := p.Dir(name, ver)

	claimed, err := p.installed.Claim(name, ver)
	if err != nil {
		return "", false, err
	}
	if !claimed {
		log.Debug(log.CatInstall, "Pool hit", "package", name, "version", ver)
		return dir, false, nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		_ = p.installed.Release(name, ver)
		return "", false, fmt.Errorf("create pool directory: %w", err)
	}

	if err := stage(dir); err != nil {
		_ = os.RemoveAll(dir)
		if relErr := p.installed.Release(name, ver); relErr != nil {
			log.ErrorErr(log.CatInstall, "Failed to release claim after failed build", relErr,
				"package", name, "version", ver)
		}
		return "", false, err
	}

	log.Info(log.CatInstall, "Pool entry built", "package", name, "version", ver)
	return dir, true, nil
}

// Remove deletes a pool entry's directory and its store row.
func (p *Pool) Remove(name, ver string) error {
	l := p.lock(name, ver)
	l.Lock()
	defer l.Unlock()

	if err := os.RemoveAll(p.Dir(name, ver)); err != nil {
		return fmt.Errorf("remove pool directory: %w", err)
	}
	if err := p.installed.Release(name, ver); err != nil {
		return err
	}
	log.Info(log.CatGC, "Pool entry removed", "package", name, "version", ver)
	return nil
}

// copyArtifacts copies the declared artifact paths from a build working
// directory into a pool directory. Paths must stay inside the working
// directory: absolute paths and parent traversal are rejected, and a
// declared artifact the build did not produce is an error.
func copyArtifacts(workDir, destDir string, artifacts []string) error {
	for _, artifact := range artifacts {
		if filepath.IsAbs(artifact) {
			return fmt.Errorf("artifact path %q must be relative", artifact)
		}
		clean := filepath.Clean(artifact)
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return fmt.Errorf("artifact path %q escapes the build directory", artifact)
		}

		src := filepath.Join(workDir, clean)
		dst := filepath.Join(destDir, clean)
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("copy artifact %q: %w", artifact, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0700); err != nil {
		return err
	}

	in, err := os.Open(src) //nolint:gosec // G304: path validated against the work dir
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm()) //nolint:gosec // G304: pool path
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	_, err = io.Copy(out, in)
	return err
}
