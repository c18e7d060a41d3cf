package models

// Repository is a named source of packages. It owns the list of records
// registered through it and the strategy that names and fetches them.
// A Repository outlives all of its PackageRecords.
type Repository struct {
	Name     RepositoryID
	Packages []PackageID
	Strategy Strategy
}
