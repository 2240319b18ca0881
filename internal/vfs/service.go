package vfs

// Service bundles the core components wired to one database, content store
// and storage backend.
type Service struct {
	Paths   *PathResolver
	Folders *FolderTree
	Files   *FileRegistry
	Usages  *ReferenceGuard
}

// NewService creates the core components with the provided dependencies.
func NewService(db Database, content ContentStore, backend StorageBackend, logger Logger, clock Clock, idgen IDGenerator) *Service {
	paths := NewPathResolver(db)
	guard := NewReferenceGuard(db, content, logger)
	return &Service{
		Paths:   paths,
		Folders: NewFolderTree(db, content, backend, paths, logger, clock, idgen),
		Files:   NewFileRegistry(db, content, backend, paths, guard, logger, clock, idgen),
		Usages:  guard,
	}
}
