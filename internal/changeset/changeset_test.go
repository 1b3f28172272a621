package changeset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/version"
)

// fakeKnown serves known versions per name, newest first.
type fakeKnown struct {
	versions map[string][]string
}

func (f *fakeKnown) SyncRegistry(string, []domain.KnownPackage) error { return nil }

func (f *fakeKnown) Find(name, ver string) (domain.KnownPackage, error) {
	for _, v := range f.versions[name] {
		if v == ver {
			return domain.KnownPackage{Name: name, Version: v}, nil
		}
	}
	return domain.KnownPackage{}, &domain.NotFoundError{Kind: "package", Name: name}
}

func (f *fakeKnown) FindByName(name string) ([]domain.KnownPackage, error) {
	var out []domain.KnownPackage
	for _, v := range f.versions[name] {
		out = append(out, domain.KnownPackage{Name: name, Version: v})
	}
	return out, nil
}

func (f *fakeKnown) List() ([]domain.KnownPackage, error) { return nil, nil }

func requests(raw ...string) []version.Request {
	return version.ParseRequests(raw)
}

func binding(workspace, name, ver, requested string) domain.WorkspacePackage {
	return domain.WorkspacePackage{
		Workspace: workspace,
		Name:      name,
		Version:   ver,
		Requested: version.ParseSpec(requested),
	}
}

func TestInstall_NewPackagesAreAdded(t *testing.T) {
	e := NewEngine(&fakeKnown{})

	plan, err := e.Install("global", requests("a@1.0.0", "b"), nil)
	require.NoError(t, err)
	require.Len(t, plan.Added, 2)
	require.Empty(t, plan.Changed)
	require.Equal(t, "a", plan.Added[0].Name)
	require.Equal(t, version.Exact("1.0.0"), plan.Added[0].Spec)
	require.Equal(t, "b", plan.Added[1].Name)
	require.Equal(t, version.Any(), plan.Added[1].Spec)
}

func TestInstall_DuplicateNamesMerge(t *testing.T) {
	e := NewEngine(&fakeKnown{})

	plan, err := e.Install("global", requests("a", "a@1.0.0"), nil)
	require.NoError(t, err)
	require.Len(t, plan.Added, 1)
	require.Equal(t, version.Exact("1.0.0"), plan.Added[0].Spec)
}

func TestInstall_IncompatibleDuplicatesConflict(t *testing.T) {
	e := NewEngine(&fakeKnown{})

	_, err := e.Install("global", requests("a@1.0.0", "a@1.0.1"), nil)
	var conflicts *domain.ConflictsError
	require.ErrorAs(t, err, &conflicts)
	require.Equal(t, []string{"a"}, conflicts.Conflicts.Names())
	require.Len(t, conflicts.Conflicts["a"], 2)
}

func TestInstall_ReportsEveryConflictingName(t *testing.T) {
	e := NewEngine(&fakeKnown{})

	_, err := e.Install("global",
		requests("a@1.0.0", "a@1.0.1", "b@2.0.0", "b@2.0.1", "c"), nil)
	var conflicts *domain.ConflictsError
	require.ErrorAs(t, err, &conflicts)
	require.Equal(t, []string{"a", "b"}, conflicts.Conflicts.Names())
}

func TestInstall_BoundNameBecomesChanged(t *testing.T) {
	e := NewEngine(&fakeKnown{})
	bound := []domain.WorkspacePackage{binding("global", "a", "1.0.0", "~1")}

	plan, err := e.Install("global", requests("a@1.0.5"), bound)
	require.NoError(t, err)
	require.Empty(t, plan.Added)
	require.Len(t, plan.Changed, 1)
	require.Equal(t, version.Exact("1.0.5"), plan.Changed[0].Spec)
	require.NotNil(t, plan.Changed[0].Previous)
	require.Equal(t, "1.0.0", plan.Changed[0].Previous.Version)
}

func TestInstall_IncompatibleWithBindingConflicts(t *testing.T) {
	e := NewEngine(&fakeKnown{})
	bound := []domain.WorkspacePackage{binding("global", "test-package", "0.1.0", "0.1.0")}

	_, err := e.Install("global", requests("test-package@0.1.1"), bound)
	var conflicts *domain.ConflictsError
	require.ErrorAs(t, err, &conflicts)
	require.Equal(t, []string{"test-package"}, conflicts.Conflicts.Names())
	require.Equal(t,
		[]version.Spec{version.Exact("0.1.0"), version.Exact("0.1.1")},
		conflicts.Conflicts["test-package"])
}

// Each request is checked against the binding it would replace, not against
// the history of requests that produced it.
func TestInstall_SequentialRequestsCheckCurrentBindingOnly(t *testing.T) {
	e := NewEngine(&fakeKnown{})

	steps := []struct {
		request string
		bound   string
	}{
		{"test-package@0.1.0", ""},
		{"test-package@~0.1", "0.1.0"},
		{"test-package", "~0.1"},
	}
	for _, step := range steps {
		var bound []domain.WorkspacePackage
		if step.bound != "" {
			bound = []domain.WorkspacePackage{binding("global", "test-package", "0.1.0", step.bound)}
		}
		plan, err := e.Install("global", requests(step.request), bound)
		require.NoError(t, err, "request %s against binding %q", step.request, step.bound)
		require.Len(t, plan.Installs(), 1)
	}
}

func TestUpdate_IncludesOnlyPackagesWithNewerVersions(t *testing.T) {
	e := NewEngine(&fakeKnown{versions: map[string][]string{
		"fresh": {"2.0.0", "1.0.0"},
		"stale": {"1.0.0"},
	}})
	bound := []domain.WorkspacePackage{
		binding("global", "fresh", "1.0.0", "*"),
		binding("global", "stale", "1.0.0", "*"),
	}

	plan, err := e.Update("global", bound)
	require.NoError(t, err)
	require.Len(t, plan.Changed, 1)
	require.Equal(t, "fresh", plan.Changed[0].Name)
	require.Equal(t, "2.0.0", plan.Changed[0].Version)
	require.Equal(t, version.Any(), plan.Changed[0].Spec)
}

func TestUpdate_SkipsUnknownNames(t *testing.T) {
	e := NewEngine(&fakeKnown{})
	bound := []domain.WorkspacePackage{binding("global", "orphan", "1.0.0", "*")}

	plan, err := e.Update("global", bound)
	require.NoError(t, err)
	require.True(t, plan.Empty())
}

// Version order is plain string order, so "2.0.0" is newer than "10.0.0".
func TestUpdate_UsesLexicographicOrder(t *testing.T) {
	e := NewEngine(&fakeKnown{versions: map[string][]string{
		"a": {"2.0.0", "10.0.0"},
	}})
	bound := []domain.WorkspacePackage{binding("global", "a", "10.0.0", "*")}

	plan, err := e.Update("global", bound)
	require.NoError(t, err)
	require.Len(t, plan.Changed, 1)
	require.Equal(t, "2.0.0", plan.Changed[0].Version)
}

func TestRemove_RequiresEveryNameBound(t *testing.T) {
	e := NewEngine(&fakeKnown{})
	bound := []domain.WorkspacePackage{binding("global", "a", "1.0.0", "*")}

	_, err := e.Remove("global", []string{"a", "missing"}, bound)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "missing", notFound.Name)
}

func TestRemove_PlansBoundPackages(t *testing.T) {
	e := NewEngine(&fakeKnown{})
	bound := []domain.WorkspacePackage{
		binding("global", "a", "1.0.0", "*"),
		binding("global", "b", "2.0.0", "~2"),
	}

	plan, err := e.Remove("global", []string{"b", "a", "b"}, bound)
	require.NoError(t, err)
	require.Len(t, plan.Removed, 2)
	require.Equal(t, "b", plan.Removed[0].Name)
	require.Equal(t, "a", plan.Removed[1].Name)
}
