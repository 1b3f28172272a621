package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter writes DTOs as plain text or indented JSON.
type Formatter struct {
	writer io.Writer
	json   bool
}

// NewFormatter creates a formatter. When jsonOutput is true every Format
// method emits indented JSON instead of text.
func NewFormatter(writer io.Writer, jsonOutput bool) *Formatter {
	return &Formatter{writer: writer, json: jsonOutput}
}

func (f *Formatter) encode(v any) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatKnownPackages writes the known-package table.
func (f *Formatter) FormatKnownPackages(pkgs []PackageDTO) error {
	if f.json {
		return f.encode(pkgs)
	}
	for _, p := range pkgs {
		if _, err := fmt.Fprintln(f.writer, p.Display); err != nil {
			return err
		}
	}
	return nil
}

// FormatBindings writes a workspace's bindings.
func (f *Formatter) FormatBindings(bindings []BindingDTO) error {
	if f.json {
		return f.encode(bindings)
	}
	for _, b := range bindings {
		if _, err := fmt.Fprintln(f.writer, b.Display); err != nil {
			return err
		}
	}
	return nil
}

// FormatRegistries writes the registry list.
func (f *Formatter) FormatRegistries(regs []RegistryDTO) error {
	if f.json {
		return f.encode(regs)
	}
	for _, r := range regs {
		fetched := "never fetched"
		if r.LastFetched != nil {
			fetched = "fetched " + r.LastFetched.Format("2006-01-02 15:04:05")
		}
		name := r.Name
		if name == "" {
			name = "(uninitialized)"
		}
		if _, err := fmt.Fprintf(f.writer, "%s\t%s\t(%s)\n", name, r.URI, fetched); err != nil {
			return err
		}
	}
	return nil
}

// FormatWorkspaces writes the workspace list.
func (f *Formatter) FormatWorkspaces(workspaces []WorkspaceDTO) error {
	if f.json {
		return f.encode(workspaces)
	}
	for _, w := range workspaces {
		if _, err := fmt.Fprintln(f.writer, w.Name); err != nil {
			return err
		}
	}
	return nil
}

// FormatInstallLogs writes per-package bulk-operation results. Failures
// carry their exit code and captured stderr so nothing fails silently.
func (f *Formatter) FormatInstallLogs(logs []InstallLogDTO) error {
	if f.json {
		return f.encode(logs)
	}
	for _, l := range logs {
		var err error
		switch {
		case l.Success && l.Removed && l.Unreferenced:
			_, err = fmt.Fprintf(f.writer, "removed %s@%s (pool entry unreferenced; 'cask gc' will delete it)\n", l.Package, l.Version)
		case l.Success && l.Removed:
			_, err = fmt.Fprintf(f.writer, "removed %s@%s\n", l.Package, l.Version)
		case l.Success && l.NewInstall:
			_, err = fmt.Fprintf(f.writer, "installed %s@%s\n", l.Package, l.Version)
		case l.Success:
			_, err = fmt.Fprintf(f.writer, "bound %s@%s (already in pool)\n", l.Package, l.Version)
		case l.Error != "":
			_, err = fmt.Fprintf(f.writer, "failed %s@%s: %s\n", l.Package, l.Version, l.Error)
		default:
			_, err = fmt.Fprintf(f.writer, "failed %s@%s: build exited with code %d\n", l.Package, l.Version, l.ExitCode)
			if err == nil && strings.TrimSpace(l.Stderr) != "" {
				_, err = fmt.Fprint(f.writer, indent(l.Stderr))
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n") + "\n"
}
