// Package install runs change-set plans: it resolves versions, builds
// packages into the shared pool exactly once, binds versions into
// workspaces, and garbage-collects unreferenced pool entries.
package install

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/zjrosen/cask/internal/log"
)

// BuildResult carries a build command's captured output and exit status.
type BuildResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Builder runs a package's build command in a working directory.
// A non-zero exit is reported in the result, not as an error; the error
// return is for failures to run the command at all.
type Builder interface {
	Build(ctx context.Context, workDir, command string) (BuildResult, error)
}

// ShellBuilder is the production Builder: it spawns a shell per build.
type ShellBuilder struct{}

var _ Builder = (*ShellBuilder)(nil)

// Build runs the command under sh -c in workDir.
func (ShellBuilder) Build(ctx context.Context, workDir, command string) (BuildResult, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := BuildResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return result, err
		}
		result.ExitCode = exitErr.ExitCode()
	}

	log.Debug(log.CatInstall, "Build finished", "dir", workDir, "exit_code", result.ExitCode)
	return result, nil
}
