package sqlite

import (
	"database/sql"
	"time"

	"github.com/zjrosen/cask/internal/domain"
)

// installedRepository implements domain.InstalledPackageRepository using
// SQLite.
type installedRepository struct {
	db *sql.DB
}

func newInstalledRepository(db *sql.DB) *installedRepository {
	return &installedRepository{db: db}
}

var _ domain.InstalledPackageRepository = (*installedRepository)(nil)

// Claim atomically records (name, version) as installed. INSERT OR IGNORE
// makes the row itself the claim token: exactly one concurrent caller
// observes claimed=true.
func (r *installedRepository) Claim(name, ver string) (bool, error) {
	result, err := r.db.Exec(
		`INSERT OR IGNORE INTO installed_packages (name, version, created_at) VALUES (?, ?, ?)`,
		name, ver, time.Now().Unix(),
	)
	if err != nil {
		return false, &domain.StoreError{Op: "claim install", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, &domain.StoreError{Op: "claim install", Err: err}
	}
	return affected == 1, nil
}

// Release removes the pool entry row, used when a claimed build fails or
// during garbage collection.
func (r *installedRepository) Release(name, ver string) error {
	_, err := r.db.Exec(
		`DELETE FROM installed_packages WHERE name = ? AND version = ?`,
		name, ver,
	)
	if err != nil {
		return &domain.StoreError{Op: "release install", Err: err}
	}
	return nil
}

// Exists reports whether a pool entry exists for (name, version).
func (r *installedRepository) Exists(name, ver string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM installed_packages WHERE name = ? AND version = ?)`,
		name, ver,
	).Scan(&exists)
	if err != nil {
		return false, &domain.StoreError{Op: "check install", Err: err}
	}
	return exists, nil
}

// List returns all pool entries ordered by name, then version.
func (r *installedRepository) List() ([]domain.InstalledPackage, error) {
	return r.query(
		`SELECT name, version, created_at FROM installed_packages ORDER BY name, version`,
	)
}

// Unreferenced returns pool entries that no workspace binding references.
func (r *installedRepository) Unreferenced() ([]domain.InstalledPackage, error) {
	return r.query(
		`SELECT i.name, i.version, i.created_at FROM installed_packages i
		 LEFT JOIN workspace_packages w ON w.name = i.name AND w.version = i.version
		 WHERE w.name IS NULL
		 ORDER BY i.name, i.version`,
	)
}

func (r *installedRepository) query(query string, args ...any) ([]domain.InstalledPackage, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, &domain.StoreError{Op: "query installed packages", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var pkgs []domain.InstalledPackage
	for rows.Next() {
		var (
			name, ver string
			createdAt int64
		)
		if err := rows.Scan(&name, &ver, &createdAt); err != nil {
			return nil, &domain.StoreError{Op: "scan installed package", Err: err}
		}
		pkgs = append(pkgs, domain.InstalledPackage{
			Name:      name,
			Version:   ver,
			CreatedAt: time.Unix(createdAt, 0),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "query installed packages", Err: err}
	}
	return pkgs, nil
}
