package testutil

import "github.com/zjrosen/cask/internal/domain"

// PackageOption configures a fixture package.
type PackageOption func(*domain.KnownPackage)

// WithDescription sets the package description.
func WithDescription(desc string) PackageOption {
	return func(p *domain.KnownPackage) { p.Description = desc }
}

// WithSource sets the source archive URL.
func WithSource(url string) PackageOption {
	return func(p *domain.KnownPackage) { p.Source = url }
}

// WithBuild sets the build command.
func WithBuild(command string) PackageOption {
	return func(p *domain.KnownPackage) { p.Build = command }
}

// WithArtifacts sets the declared artifact paths.
func WithArtifacts(artifacts ...string) PackageOption {
	return func(p *domain.KnownPackage) { p.Artifacts = artifacts }
}

// WithLicense sets the license.
func WithLicense(license string) PackageOption {
	return func(p *domain.KnownPackage) { p.License = license }
}
