package models

// PackageID uniquely identifies one registered package record. Two
// registrations of the same (repository, base, version, arch) still get
// distinct ids.
type PackageID string

// FamilyKey is the canonical base identity a package resolves under. It may
// differ from the base name the package was registered with (bootstrap
// repositories strip the _bootstrap marker).
type FamilyKey string

// RepositoryID names a package repository.
type RepositoryID string
