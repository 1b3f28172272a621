package sqlite

import (
	"database/sql"
	"errors"

	"github.com/zjrosen/cask/internal/domain"
)

const knownColumns = `name, version, description, homepage, license, source, build, artifacts, registry`

// knownPackageRepository implements domain.KnownPackageRepository using SQLite.
type knownPackageRepository struct {
	db *sql.DB
}

func newKnownPackageRepository(db *sql.DB) *knownPackageRepository {
	return &knownPackageRepository{db: db}
}

var _ domain.KnownPackageRepository = (*knownPackageRepository)(nil)

func scanKnown(scanner interface{ Scan(...any) error }) (knownPackageModel, error) {
	var m knownPackageModel
	err := scanner.Scan(
		&m.Name, &m.Version, &m.Description, &m.Homepage, &m.License,
		&m.Source, &m.Build, &m.Artifacts, &m.Registry,
	)
	return m, err
}

// SyncRegistry reconciles a registry's namespace in one transaction:
// collision check against other registries, removal of vanished versions,
// then upsert of every manifest entry. Nothing is written if any package
// collides with another registry's claim.
func (r *knownPackageRepository) SyncRegistry(registry string, pkgs []domain.KnownPackage) error {
	tx, err := r.db.Begin()
	if err != nil {
		return &domain.StoreError{Op: "sync registry", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	// Collision check before any write.
	for _, pkg := range pkgs {
		var owner string
		err := tx.QueryRow(
			`SELECT registry FROM known_packages WHERE name = ? AND version = ?`,
			pkg.Name, pkg.Version,
		).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return &domain.StoreError{Op: "sync registry", Err: err}
		}
		if owner != registry {
			return &domain.CollisionError{
				Package:  pkg.Name,
				Version:  pkg.Version,
				Registry: registry,
				OwnedBy:  owner,
			}
		}
	}

	// Drop versions previously known for this registry but absent from the
	// new manifest: the registry is the source of truth for its namespace.
	manifest := make(map[[2]string]struct{}, len(pkgs))
	for _, pkg := range pkgs {
		manifest[[2]string{pkg.Name, pkg.Version}] = struct{}{}
	}

	rows, err := tx.Query(`SELECT name, version FROM known_packages WHERE registry = ?`, registry)
	if err != nil {
		return &domain.StoreError{Op: "sync registry", Err: err}
	}
	var vanished [][2]string
	for rows.Next() {
		var name, ver string
		if err := rows.Scan(&name, &ver); err != nil {
			_ = rows.Close()
			return &domain.StoreError{Op: "sync registry", Err: err}
		}
		if _, ok := manifest[[2]string{name, ver}]; !ok {
			vanished = append(vanished, [2]string{name, ver})
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return &domain.StoreError{Op: "sync registry", Err: err}
	}
	_ = rows.Close()

	for _, pair := range vanished {
		if _, err := tx.Exec(
			`DELETE FROM known_packages WHERE name = ? AND version = ?`,
			pair[0], pair[1],
		); err != nil {
			return &domain.StoreError{Op: "sync registry", Err: err}
		}
	}

	for _, pkg := range pkgs {
		model, err := toKnownPackageModel(pkg)
		if err != nil {
			return &domain.StoreError{Op: "encode known package", Err: err}
		}
		if _, err := tx.Exec(
			`INSERT INTO known_packages (`+knownColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(name, version) DO UPDATE SET
				description = excluded.description,
				homepage = excluded.homepage,
				license = excluded.license,
				source = excluded.source,
				build = excluded.build,
				artifacts = excluded.artifacts,
				registry = excluded.registry`,
			model.Name, model.Version, model.Description, model.Homepage,
			model.License, model.Source, model.Build, model.Artifacts, model.Registry,
		); err != nil {
			return &domain.StoreError{Op: "upsert known package", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "sync registry", Err: err}
	}
	return nil
}

// Find returns the known package for an exact (name, version).
func (r *knownPackageRepository) Find(name, ver string) (domain.KnownPackage, error) {
	row := r.db.QueryRow(
		`SELECT `+knownColumns+` FROM known_packages WHERE name = ? AND version = ?`,
		name, ver,
	)
	model, err := scanKnown(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.KnownPackage{}, &domain.NotFoundError{Kind: "package", Name: name + "@" + ver}
	}
	if err != nil {
		return domain.KnownPackage{}, &domain.StoreError{Op: "find known package", Err: err}
	}
	return model.toDomain()
}

// FindByName returns all known versions for a name, version string
// descending. The order is lexicographic, matching resolution order.
func (r *knownPackageRepository) FindByName(name string) ([]domain.KnownPackage, error) {
	return r.query(
		`SELECT `+knownColumns+` FROM known_packages WHERE name = ? ORDER BY version DESC`,
		name,
	)
}

// List returns every known package ordered by name, then version descending.
func (r *knownPackageRepository) List() ([]domain.KnownPackage, error) {
	return r.query(
		`SELECT ` + knownColumns + ` FROM known_packages ORDER BY name, version DESC`,
	)
}

func (r *knownPackageRepository) query(query string, args ...any) ([]domain.KnownPackage, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, &domain.StoreError{Op: "query known packages", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var pkgs []domain.KnownPackage
	for rows.Next() {
		model, err := scanKnown(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: "scan known package", Err: err}
		}
		pkg, err := model.toDomain()
		if err != nil {
			return nil, &domain.StoreError{Op: "decode known package", Err: err}
		}
		pkgs = append(pkgs, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "query known packages", Err: err}
	}
	return pkgs, nil
}
