package sqlite

import (
	"database/sql"
	"errors"

	"github.com/zjrosen/cask/internal/domain"
)

// registryRepository implements domain.RegistryRepository using SQLite.
type registryRepository struct {
	db *sql.DB
}

func newRegistryRepository(db *sql.DB) *registryRepository {
	return &registryRepository{db: db}
}

var _ domain.RegistryRepository = (*registryRepository)(nil)

// Create inserts a new registry row. The existence check and insert run in
// one transaction so concurrent creates cannot both succeed.
func (r *registryRepository) Create(reg domain.Registry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return &domain.StoreError{Op: "create registry", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	err = tx.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM registries WHERE uri = ? OR (name IS NOT NULL AND name = ?))`,
		reg.URI, reg.Name,
	).Scan(&exists)
	if err != nil {
		return &domain.StoreError{Op: "create registry", Err: err}
	}
	if exists {
		name := reg.Name
		if name == "" {
			name = reg.URI
		}
		return &domain.AlreadyExistsError{Kind: "registry", Name: name}
	}

	model := toRegistryModel(reg)
	if _, err := tx.Exec(
		`INSERT INTO registries (uri, name, last_fetched_at) VALUES (?, ?, ?)`,
		model.URI, model.Name, model.LastFetchedAt,
	); err != nil {
		return &domain.StoreError{Op: "create registry", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "create registry", Err: err}
	}
	return nil
}

// Update overwrites name and last-fetched for the registry at the given URI.
func (r *registryRepository) Update(reg domain.Registry) error {
	model := toRegistryModel(reg)
	result, err := r.db.Exec(
		`UPDATE registries SET name = ?, last_fetched_at = ? WHERE uri = ?`,
		model.Name, model.LastFetchedAt, model.URI,
	)
	if err != nil {
		return &domain.StoreError{Op: "update registry", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &domain.StoreError{Op: "update registry", Err: err}
	}
	if affected == 0 {
		return &domain.NotFoundError{Kind: "registry", Name: reg.URI}
	}
	return nil
}

// FindByName returns the registry with the given name.
func (r *registryRepository) FindByName(name string) (domain.Registry, error) {
	var model registryModel
	err := r.db.QueryRow(
		`SELECT uri, name, last_fetched_at FROM registries WHERE name = ?`,
		name,
	).Scan(&model.URI, &model.Name, &model.LastFetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Registry{}, &domain.NotFoundError{Kind: "registry", Name: name}
	}
	if err != nil {
		return domain.Registry{}, &domain.StoreError{Op: "find registry", Err: err}
	}
	return model.toDomain(), nil
}

// List returns all registries, named ones first in name order.
func (r *registryRepository) List() ([]domain.Registry, error) {
	rows, err := r.db.Query(
		`SELECT uri, name, last_fetched_at FROM registries ORDER BY name IS NULL, name, uri`,
	)
	if err != nil {
		return nil, &domain.StoreError{Op: "list registries", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var registries []domain.Registry
	for rows.Next() {
		var model registryModel
		if err := rows.Scan(&model.URI, &model.Name, &model.LastFetchedAt); err != nil {
			return nil, &domain.StoreError{Op: "scan registry", Err: err}
		}
		registries = append(registries, model.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list registries", Err: err}
	}
	return registries, nil
}

// Delete removes a registry and every known package it contributed.
func (r *registryRepository) Delete(name string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return &domain.StoreError{Op: "delete registry", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM known_packages WHERE registry = ?`, name); err != nil {
		return &domain.StoreError{Op: "delete registry packages", Err: err}
	}

	result, err := tx.Exec(`DELETE FROM registries WHERE name = ?`, name)
	if err != nil {
		return &domain.StoreError{Op: "delete registry", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &domain.StoreError{Op: "delete registry", Err: err}
	}
	if affected == 0 {
		return &domain.NotFoundError{Kind: "registry", Name: name}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "delete registry", Err: err}
	}
	return nil
}
