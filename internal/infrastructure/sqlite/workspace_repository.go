package sqlite

import (
	"database/sql"
	"errors"

	"github.com/zjrosen/cask/internal/domain"
)

// workspaceRepository implements domain.WorkspaceRepository using SQLite.
type workspaceRepository struct {
	db *sql.DB
}

func newWorkspaceRepository(db *sql.DB) *workspaceRepository {
	return &workspaceRepository{db: db}
}

var _ domain.WorkspaceRepository = (*workspaceRepository)(nil)

// Create inserts a workspace. Existence check and insert share a
// transaction so concurrent creates cannot both succeed.
func (r *workspaceRepository) Create(name string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return &domain.StoreError{Op: "create workspace", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM workspaces WHERE name = ?)`, name,
	).Scan(&exists); err != nil {
		return &domain.StoreError{Op: "create workspace", Err: err}
	}
	if exists {
		return &domain.AlreadyExistsError{Kind: "workspace", Name: name}
	}

	if _, err := tx.Exec(`INSERT INTO workspaces (name) VALUES (?)`, name); err != nil {
		return &domain.StoreError{Op: "create workspace", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "create workspace", Err: err}
	}
	return nil
}

// Delete removes a workspace and its bindings. The global workspace is
// protected.
func (r *workspaceRepository) Delete(name string) error {
	if name == domain.GlobalWorkspace {
		return domain.ErrGlobalWorkspace
	}

	tx, err := r.db.Begin()
	if err != nil {
		return &domain.StoreError{Op: "delete workspace", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM workspace_packages WHERE workspace = ?`, name); err != nil {
		return &domain.StoreError{Op: "delete workspace bindings", Err: err}
	}

	result, err := tx.Exec(`DELETE FROM workspaces WHERE name = ?`, name)
	if err != nil {
		return &domain.StoreError{Op: "delete workspace", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &domain.StoreError{Op: "delete workspace", Err: err}
	}
	if affected == 0 {
		return &domain.NotFoundError{Kind: "workspace", Name: name}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "delete workspace", Err: err}
	}
	return nil
}

// Exists reports whether the workspace exists.
func (r *workspaceRepository) Exists(name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM workspaces WHERE name = ?)`, name,
	).Scan(&exists)
	if err != nil {
		return false, &domain.StoreError{Op: "check workspace", Err: err}
	}
	return exists, nil
}

// List returns all workspaces in name order.
func (r *workspaceRepository) List() ([]domain.Workspace, error) {
	rows, err := r.db.Query(`SELECT name FROM workspaces ORDER BY name`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list workspaces", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var workspaces []domain.Workspace
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &domain.StoreError{Op: "scan workspace", Err: err}
		}
		workspaces = append(workspaces, domain.Workspace{Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list workspaces", Err: err}
	}
	return workspaces, nil
}

// SaveBinding upserts the binding for (workspace, package name). An update
// replaces the prior version atomically.
func (r *workspaceRepository) SaveBinding(binding domain.WorkspacePackage) error {
	model := toWorkspacePackageModel(binding)
	_, err := r.db.Exec(
		`INSERT INTO workspace_packages (workspace, name, version, requested)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(workspace, name) DO UPDATE SET
			version = excluded.version,
			requested = excluded.requested`,
		model.Workspace, model.Name, model.Version, model.Requested,
	)
	if err != nil {
		return &domain.StoreError{Op: "save binding", Err: err}
	}
	return nil
}

// DeleteBinding removes one binding.
func (r *workspaceRepository) DeleteBinding(workspace, name string) error {
	result, err := r.db.Exec(
		`DELETE FROM workspace_packages WHERE workspace = ? AND name = ?`,
		workspace, name,
	)
	if err != nil {
		return &domain.StoreError{Op: "delete binding", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &domain.StoreError{Op: "delete binding", Err: err}
	}
	if affected == 0 {
		return &domain.NotFoundError{Kind: "package", Name: name}
	}
	return nil
}

// FindBinding returns the binding for (workspace, package name).
func (r *workspaceRepository) FindBinding(workspace, name string) (domain.WorkspacePackage, error) {
	var model workspacePackageModel
	err := r.db.QueryRow(
		`SELECT workspace, name, version, requested FROM workspace_packages
		 WHERE workspace = ? AND name = ?`,
		workspace, name,
	).Scan(&model.Workspace, &model.Name, &model.Version, &model.Requested)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WorkspacePackage{}, &domain.NotFoundError{Kind: "package", Name: name}
	}
	if err != nil {
		return domain.WorkspacePackage{}, &domain.StoreError{Op: "find binding", Err: err}
	}
	return model.toDomain(), nil
}

// ListBindings returns a workspace's bindings ordered by package name.
func (r *workspaceRepository) ListBindings(workspace string) ([]domain.WorkspacePackage, error) {
	rows, err := r.db.Query(
		`SELECT workspace, name, version, requested FROM workspace_packages
		 WHERE workspace = ? ORDER BY name`,
		workspace,
	)
	if err != nil {
		return nil, &domain.StoreError{Op: "list bindings", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var bindings []domain.WorkspacePackage
	for rows.Next() {
		var model workspacePackageModel
		if err := rows.Scan(&model.Workspace, &model.Name, &model.Version, &model.Requested); err != nil {
			return nil, &domain.StoreError{Op: "scan binding", Err: err}
		}
		bindings = append(bindings, model.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list bindings", Err: err}
	}
	return bindings, nil
}

// CountRefs counts bindings across all workspaces for an exact version.
func (r *workspaceRepository) CountRefs(name, ver string) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM workspace_packages WHERE name = ? AND version = ?`,
		name, ver,
	).Scan(&count)
	if err != nil {
		return 0, &domain.StoreError{Op: "count refs", Err: err}
	}
	return count, nil
}
