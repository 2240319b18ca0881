package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"vfs-go/internal/database/migrations"
	"vfs-go/internal/database/sqlc"
	"vfs-go/internal/vfs"
)

// SQLiteDatabase implements vfs.Database and vfs.ContentStore using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
	clock   vfs.Clock
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
// A nil clock uses the real time.
func NewSQLiteDatabase(path string, clock vfs.Clock) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteDatabaseFromDB(db, path, clock), nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB, path string, clock vfs.Clock) *SQLiteDatabase {
	if clock == nil {
		clock = vfs.RealClock{}
	}
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		path:    path,
		clock:   clock,
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// PRAGMAs are per connection and ":memory:" is per connection too, so
	// keep exactly one.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func nullInt64(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func pointers[T any](rows []T) []*T {
	result := make([]*T, len(rows))
	for i := range rows {
		result[i] = &rows[i]
	}
	return result
}

// Folder operations

func (s *SQLiteDatabase) CreateFolder(ctx context.Context, folder *vfs.Folder) (*vfs.Folder, error) {
	created, err := s.queries.InsertFolder(ctx, sqlc.InsertFolderParams{
		VirtualID:   folder.VirtualID,
		Name:        folder.Name,
		Path:        folder.Path,
		VirtualPath: folder.VirtualPath,
		OwnerID:     folder.OwnerID,
		ParentID:    folder.ParentID,
		CreatedAt:   folder.CreatedAt,
		UpdatedAt:   folder.UpdatedAt,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, vfs.WrapError(vfs.KindConflict, err, "folder %q already exists", folder.Name)
		}
		return nil, fmt.Errorf("inserting folder: %w", err)
	}
	return &created, nil
}

func (s *SQLiteDatabase) FindFolderByID(ctx context.Context, id int64) (*vfs.Folder, error) {
	folder, err := s.queries.GetFolderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding folder by id: %w", err)
	}
	return &folder, nil
}

func (s *SQLiteDatabase) ListFolders(ctx context.Context, ownerID int64, parentID *int64) ([]*vfs.Folder, error) {
	var folders []sqlc.Folder
	var err error
	if parentID == nil {
		folders, err = s.queries.ListRootFolders(ctx, ownerID)
	} else {
		folders, err = s.queries.ListChildFolders(ctx, nullInt64(parentID))
	}
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return pointers(folders), nil
}

func (s *SQLiteDatabase) ListFoldersByOwner(ctx context.Context, ownerID int64) ([]*vfs.Folder, error) {
	folders, err := s.queries.ListFoldersByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing folders by owner: %w", err)
	}
	return pointers(folders), nil
}

// LoadSubtree reads the subtree in one read transaction so folders and files
// come from the same state.
func (s *SQLiteDatabase) LoadSubtree(ctx context.Context, rootID int64) (*vfs.Subtree, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	folders, err := qtx.ListSubtreeFolders(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("listing subtree folders: %w", err)
	}
	files, err := qtx.ListSubtreeFiles(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("listing subtree files: %w", err)
	}

	return &vfs.Subtree{
		Folders: pointers(folders),
		Files:   pointers(files),
	}, nil
}

func (s *SQLiteDatabase) ApplyPathRewrites(ctx context.Context, folders []vfs.FolderRewrite, files []vfs.FileRewrite) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	now := s.clock.Now()

	for _, f := range folders {
		err := qtx.UpdateFolderPaths(ctx, sqlc.UpdateFolderPathsParams{
			Name:        f.Name,
			Path:        f.Path,
			VirtualPath: f.VirtualPath,
			UpdatedAt:   now,
			ID:          f.ID,
		})
		if err != nil {
			if isUniqueViolation(err) {
				return vfs.WrapError(vfs.KindConflict, err, "folder %q already exists", f.Name)
			}
			return fmt.Errorf("updating folder %d: %w", f.ID, err)
		}
	}

	for _, f := range files {
		err := qtx.UpdateFilePaths(ctx, sqlc.UpdateFilePathsParams{
			Path:        f.Path,
			VirtualPath: f.VirtualPath,
			ID:          f.ID,
		})
		if err != nil {
			return fmt.Errorf("updating file %d: %w", f.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteFolder(ctx context.Context, id int64) error {
	if err := s.queries.DeleteFolderByID(ctx, id); err != nil {
		return fmt.Errorf("deleting folder: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) CountFolderContents(ctx context.Context, id int64) (int64, int64, error) {
	folders, err := s.queries.CountChildFolders(ctx, sql.NullInt64{Int64: id, Valid: true})
	if err != nil {
		return 0, 0, fmt.Errorf("counting child folders: %w", err)
	}
	files, err := s.queries.CountFilesInFolder(ctx, sql.NullInt64{Int64: id, Valid: true})
	if err != nil {
		return 0, 0, fmt.Errorf("counting files in folder: %w", err)
	}
	return folders, files, nil
}

func (s *SQLiteDatabase) CountFolders(ctx context.Context) (int64, error) {
	n, err := s.queries.CountFolders(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting folders: %w", err)
	}
	return n, nil
}

// File operations

func (s *SQLiteDatabase) CreateFile(ctx context.Context, file *vfs.File) (*vfs.File, error) {
	created, err := s.queries.InsertFile(ctx, sqlc.InsertFileParams{
		VirtualID:       file.VirtualID,
		OriginalName:    file.OriginalName,
		StorageFilename: file.StorageFilename,
		Path:            file.Path,
		VirtualPath:     file.VirtualPath,
		MimeType:        file.MimeType,
		Size:            file.Size,
		OwnerID:         file.OwnerID,
		FolderID:        file.FolderID,
		CreatedAt:       file.CreatedAt,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, vfs.WrapError(vfs.KindConflict, err, "file %q already exists", file.OriginalName)
		}
		return nil, fmt.Errorf("inserting file: %w", err)
	}
	return &created, nil
}

func (s *SQLiteDatabase) FindFileByID(ctx context.Context, id int64) (*vfs.File, error) {
	file, err := s.queries.GetFileByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file by id: %w", err)
	}
	return &file, nil
}

func (s *SQLiteDatabase) FindFilesByIDs(ctx context.Context, ids []int64) ([]*vfs.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	files, err := s.queries.GetFilesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("finding files by ids: %w", err)
	}
	return pointers(files), nil
}

func (s *SQLiteDatabase) ListFiles(ctx context.Context, ownerID int64, folderID *int64) ([]*vfs.File, error) {
	var files []sqlc.File
	var err error
	if folderID == nil {
		files, err = s.queries.ListRootFiles(ctx, ownerID)
	} else {
		files, err = s.queries.ListFilesInFolder(ctx, nullInt64(folderID))
	}
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return pointers(files), nil
}

func (s *SQLiteDatabase) UpdateFileLocation(ctx context.Context, loc vfs.FileLocation) error {
	err := s.queries.UpdateFileLocation(ctx, sqlc.UpdateFileLocationParams{
		FolderID:        nullInt64(loc.FolderID),
		StorageFilename: loc.StorageFilename,
		Path:            loc.Path,
		VirtualPath:     loc.VirtualPath,
		ID:              loc.ID,
	})
	if err != nil {
		return fmt.Errorf("updating file location: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteFile(ctx context.Context, id int64) error {
	if err := s.queries.DeleteFileByID(ctx, id); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) CountFiles(ctx context.Context) (int64, error) {
	n, err := s.queries.CountFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting files: %w", err)
	}
	return n, nil
}

// Content operations. Articles are the content that files are used by.

// CreateArticle stores an article with a rich-text body.
func (s *SQLiteDatabase) CreateArticle(ctx context.Context, title, body string) (*sqlc.Article, error) {
	article, err := s.queries.InsertArticle(ctx, sqlc.InsertArticleParams{
		Title:     title,
		Body:      body,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating article: %w", err)
	}
	return &article, nil
}

// LinkFile records an explicit link from an article to a file.
func (s *SQLiteDatabase) LinkFile(ctx context.Context, articleID, fileID int64) error {
	err := s.queries.InsertArticleFile(ctx, sqlc.InsertArticleFileParams{
		ArticleID: articleID,
		FileID:    fileID,
	})
	if err != nil {
		return fmt.Errorf("linking file to article: %w", err)
	}
	return nil
}

// ListArticleFiles returns the files explicitly linked to an article.
func (s *SQLiteDatabase) ListArticleFiles(ctx context.Context, articleID int64) ([]*vfs.File, error) {
	files, err := s.queries.ListFilesByArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("listing article files: %w", err)
	}
	return pointers(files), nil
}

func (s *SQLiteDatabase) ListContentWithBody(ctx context.Context) ([]vfs.ContentItem, error) {
	articles, err := s.queries.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	items := make([]vfs.ContentItem, len(articles))
	for i, a := range articles {
		items[i] = vfs.ContentItem{ID: a.ID, Title: a.Title, Body: a.Body}
	}
	return items, nil
}

func (s *SQLiteDatabase) ListExplicitLinks(ctx context.Context, fileIDs []int64) ([]vfs.ExplicitLink, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}
	rows, err := s.queries.ListArticleFileLinks(ctx, fileIDs)
	if err != nil {
		return nil, fmt.Errorf("listing article file links: %w", err)
	}
	links := make([]vfs.ExplicitLink, len(rows))
	for i, r := range rows {
		links[i] = vfs.ExplicitLink{FileID: r.FileID, ContentID: r.ArticleID, ContentTitle: r.Title}
	}
	return links, nil
}

func (s *SQLiteDatabase) RemoveFileLinks(ctx context.Context, fileID int64) error {
	if err := s.queries.DeleteArticleFilesByFileID(ctx, fileID); err != nil {
		return fmt.Errorf("removing article file links: %w", err)
	}
	return nil
}

// Operation tracking

func (s *SQLiteDatabase) CreateOperation(ctx context.Context, operation string, parameters string) (*sqlc.Operation, error) {
	op, err := s.queries.InsertOperation(ctx, sqlc.InsertOperationParams{
		StartedAt:  s.clock.Now(),
		Operation:  operation,
		Parameters: parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return &op, nil
}

func (s *SQLiteDatabase) FinishOperation(ctx context.Context, id int64, status string) error {
	err := s.queries.UpdateOperationFinished(ctx, sqlc.UpdateOperationFinishedParams{
		FinishedAt: sql.NullTime{Time: s.clock.Now(), Valid: true},
		Status:     status,
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(ctx context.Context, limit int) ([]*sqlc.Operation, error) {
	ops, err := s.queries.GetOperations(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return pointers(ops), nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate runs all pending migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time checks that SQLiteDatabase implements the core interfaces.
var (
	_ vfs.Database     = (*SQLiteDatabase)(nil)
	_ vfs.ContentStore = (*SQLiteDatabase)(nil)
)
