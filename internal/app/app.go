package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vfs-go/internal/config"
	"vfs-go/internal/database"
	"vfs-go/internal/database/sqlc"
	"vfs-go/internal/storage"
	"vfs-go/internal/vfs"
)

// backends holds the storage backend for the lifetime of the process.
var backends storage.Selector

// VFSApp is the application layer between the CLI and the vfs core.
// It constructs all dependencies from config, acts as the configured
// caller, records mutating operations and manages the DB lifecycle on Close.
type VFSApp struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	backend vfs.StorageBackend
	service *vfs.Service
	caller  vfs.Caller
	op      *Operation
	logFile *os.File
}

// NewVFSApp creates a fully wired VFSApp from the given config.
// operation identifies the CLI command being run (e.g. "CreateFolder", "DeleteFile").
// The caller must call Close when done.
func NewVFSApp(ctx context.Context, cfg *config.Config, operation string) (*VFSApp, error) {
	role, err := vfs.ParseRole(cfg.Caller.Role)
	if err != nil {
		return nil, fmt.Errorf("invalid caller: %w", err)
	}
	if cfg.Caller.UserID <= 0 {
		return nil, fmt.Errorf("invalid caller: user_id must be positive, got %d", cfg.Caller.UserID)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	backend, err := backends.Select(ctx, cfg.Storage)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating storage backend: %w", err)
	}

	caller := vfs.Caller{UserID: cfg.Caller.UserID, Role: role}
	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, caller, os.Stderr)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := vfs.NewService(db, db, backend, &slogAdapter{l: logger}, vfs.RealClock{}, vfs.UUIDGenerator{})

	return &VFSApp{
		cfg:     cfg,
		db:      db,
		backend: backend,
		service: svc,
		caller:  caller,
		op:      NewOperation(operation, ""),
		logFile: logFile,
	}, nil
}

// Caller returns the identity the app acts as.
func (a *VFSApp) Caller() vfs.Caller {
	return a.caller
}

// Backend returns the storage backend in use.
func (a *VFSApp) Backend() vfs.StorageBackend {
	return a.backend
}

// persistOperation saves the operation with its parameters, giving it an
// auto-increment ID. This should only be called for DB-mutating commands.
func (a *VFSApp) persistOperation(ctx context.Context, kv ...any) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = formatParams(kv...)
	dbOp, err := a.db.CreateOperation(ctx, a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// CreateFolder creates a folder under parentID, or at the caller's root.
func (a *VFSApp) CreateFolder(ctx context.Context, name string, parentID *int64) (*vfs.Folder, error) {
	if err := a.persistOperation(ctx, "name", name, "parent", parentID); err != nil {
		return nil, err
	}
	folder, err := a.service.Folders.Create(ctx, a.caller, name, parentID)
	return folder, a.op.Fail(err)
}

// RenameFolder renames a folder and rewrites the paths below it.
func (a *VFSApp) RenameFolder(ctx context.Context, folderID int64, name string) (*vfs.Folder, error) {
	if err := a.persistOperation(ctx, "id", folderID, "name", name); err != nil {
		return nil, err
	}
	folder, err := a.service.Folders.Rename(ctx, a.caller, folderID, name)
	return folder, a.op.Fail(err)
}

// DeleteFolder deletes a folder, and with force everything below it.
func (a *VFSApp) DeleteFolder(ctx context.Context, folderID int64, force bool) (*vfs.DeleteResult, error) {
	if err := a.persistOperation(ctx, "id", folderID, "force", force); err != nil {
		return nil, err
	}
	result, err := a.service.Folders.Delete(ctx, a.caller, folderID, force)
	return result, a.op.Fail(err)
}

// ListFolders returns the folders directly under parentID.
func (a *VFSApp) ListFolders(ctx context.Context, parentID *int64) ([]*vfs.Folder, error) {
	return a.service.Folders.ListChildren(ctx, a.caller, parentID)
}

// FolderTree returns the folder forest of ownerID, or of the caller when
// ownerID is 0.
func (a *VFSApp) FolderTree(ctx context.Context, ownerID int64) ([]*vfs.TreeNode, error) {
	if ownerID == 0 {
		ownerID = a.caller.UserID
	}
	return a.service.Folders.Tree(ctx, a.caller, ownerID)
}

// UploadFile stores the local file at rawPath in folderID. An empty
// mimeType is detected from the extension, then from the content.
func (a *VFSApp) UploadFile(ctx context.Context, rawPath string, folderID *int64, mimeType string) (*vfs.File, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if err := a.persistOperation(ctx, "path", absPath, "folder", folderID); err != nil {
		return nil, err
	}
	file, err := a.uploadFile(ctx, absPath, folderID, mimeType)
	return file, a.op.Fail(err)
}

func (a *VFSApp) uploadFile(ctx context.Context, absPath string, folderID *int64, mimeType string) (*vfs.File, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", absPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", absPath, err)
	}
	if info.IsDir() {
		return nil, vfs.NewError(vfs.KindValidation, "%s is a directory", absPath)
	}

	r := bufio.NewReader(f)
	if mimeType == "" {
		mimeType = detectMIMEType(absPath, r)
	}

	return a.service.Files.Upload(ctx, a.caller, vfs.UploadRequest{
		Reader:       r,
		Size:         info.Size(),
		OriginalName: filepath.Base(absPath),
		MIMEType:     mimeType,
		FolderID:     folderID,
	})
}

// detectMIMEType guesses the type of a file from its extension, falling
// back to sniffing the first bytes of r without consuming them.
func detectMIMEType(name string, r *bufio.Reader) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		mediaType, _, err := mime.ParseMediaType(t)
		if err == nil {
			return mediaType
		}
	}
	head, _ := r.Peek(512)
	mediaType, _, _ := strings.Cut(http.DetectContentType(head), ";")
	return mediaType
}

// DeleteFile deletes a file. Without force a file still used by content
// is refused with its usages.
func (a *VFSApp) DeleteFile(ctx context.Context, fileID int64, force bool) error {
	if err := a.persistOperation(ctx, "id", fileID, "force", force); err != nil {
		return err
	}
	_, err := a.service.Files.Delete(ctx, a.caller, fileID, force)
	return a.op.Fail(err)
}

// MoveFile moves a file into folderID, or to the owner's root.
func (a *VFSApp) MoveFile(ctx context.Context, fileID int64, folderID *int64) (*vfs.File, error) {
	if err := a.persistOperation(ctx, "id", fileID, "folder", folderID); err != nil {
		return nil, err
	}
	file, err := a.service.Files.Move(ctx, a.caller, fileID, folderID)
	return file, a.op.Fail(err)
}

// ListFiles returns the files in folderID, or the caller's root files.
func (a *VFSApp) ListFiles(ctx context.Context, folderID *int64) ([]*vfs.File, error) {
	return a.service.Files.List(ctx, a.caller, folderID)
}

// FileURLs returns the stable URL and the backend URL of a file.
func (a *VFSApp) FileURLs(ctx context.Context, fileID int64) (stable string, public string, err error) {
	stable, err = a.service.Files.URL(ctx, a.caller, fileID)
	if err != nil {
		return "", "", err
	}
	public, err = a.service.Files.PublicURL(ctx, a.caller, fileID)
	if err != nil {
		return "", "", err
	}
	return stable, public, nil
}

// FileUsages returns the content using each of fileIDs. Unknown ids are
// reported as NotFound.
func (a *VFSApp) FileUsages(ctx context.Context, fileIDs []int64) (map[int64][]vfs.Usage, error) {
	if len(fileIDs) == 1 {
		usages, err := a.service.Usages.FindUsages(ctx, fileIDs[0])
		if err != nil {
			return nil, err
		}
		return map[int64][]vfs.Usage{fileIDs[0]: usages}, nil
	}
	usages, err := a.service.Usages.FindUsagesBatch(ctx, fileIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range fileIDs {
		if _, ok := usages[id]; !ok {
			return nil, vfs.NewError(vfs.KindNotFound, "file %d not found", id)
		}
	}
	return usages, nil
}

// ListStorage lists the backend objects directly below prefix.
func (a *VFSApp) ListStorage(ctx context.Context, prefix string) ([]vfs.ObjectInfo, error) {
	return a.backend.List(ctx, prefix)
}

// GetHistory returns the most recent operations.
func (a *VFSApp) GetHistory(ctx context.Context, limit int) ([]*sqlc.Operation, error) {
	return a.db.ListOperations(ctx, limit)
}

// BackupDatabase writes a consistent copy of the metadata database to w.
func (a *VFSApp) BackupDatabase(w io.Writer) (int64, error) {
	tmpFile, err := os.CreateTemp("", "vfs-db-backup-*.db")
	if err != nil {
		return 0, fmt.Errorf("creating temp file for db backup: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	// VACUUM INTO refuses to overwrite an existing file.
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	if err := a.db.BackupTo(tmpPath); err != nil {
		return 0, err
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("opening db backup: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(w, f)
	if err != nil {
		return n, fmt.Errorf("writing db backup: %w", err)
	}
	return n, nil
}

// Close finishes the operation record of mutating commands and closes all
// resources.
func (a *VFSApp) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.db.FinishOperation(context.Background(), a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
