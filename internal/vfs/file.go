package vfs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// UploadRequest describes a file handed to FileRegistry.Upload.
type UploadRequest struct {
	Reader       io.Reader
	Size         int64  `json:"size"`
	OriginalName string `json:"originalName"`
	MIMEType     string `json:"mimeType"`
	// FolderID is nil for the root of the caller's namespace.
	FolderID *int64 `json:"folderId"`
}

// Validate checks the request against the upload policy of a role.
func (r *UploadRequest) Validate(policy Policy) error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reader, validation.NotNil),
		validation.Field(&r.OriginalName,
			validation.Required,
			validation.RuneLength(1, MaxNameLength),
		),
		validation.Field(&r.Size,
			validation.Min(int64(0)),
			validation.Max(policy.MaxUploadBytes).Error(
				fmt.Sprintf("must be no greater than %d bytes", policy.MaxUploadBytes)),
		),
		validation.Field(&r.MIMEType,
			validation.Required,
			validation.By(func(value interface{}) error {
				if !policy.AllowsMIMEType(value.(string)) {
					return fmt.Errorf("type %q is not allowed", value)
				}
				return nil
			}),
		),
	)
}

// FileRegistry owns file upload, lookup, move and deletion.
type FileRegistry struct {
	db      Database
	content ContentStore
	backend StorageBackend
	paths   *PathResolver
	guard   *ReferenceGuard
	logger  Logger
	clock   Clock
	idgen   IDGenerator
}

func NewFileRegistry(db Database, content ContentStore, backend StorageBackend, paths *PathResolver, guard *ReferenceGuard, logger Logger, clock Clock, idgen IDGenerator) *FileRegistry {
	return &FileRegistry{
		db:      db,
		content: content,
		backend: backend,
		paths:   paths,
		guard:   guard,
		logger:  logger,
		clock:   clock,
		idgen:   idgen,
	}
}

func (r *FileRegistry) find(ctx context.Context, fileID int64) (*File, error) {
	file, err := r.db.FindFileByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("finding file %d: %w", fileID, err)
	}
	if file == nil {
		return nil, NewError(KindNotFound, "file %d not found", fileID)
	}
	return file, nil
}

// findTargetFolder returns the folder a file is placed in, which must
// belong to ownerID. A nil folderID is the owner's root.
func (r *FileRegistry) findTargetFolder(ctx context.Context, ownerID int64, folderID *int64) error {
	if folderID == nil {
		return nil
	}
	folder, err := r.db.FindFolderByID(ctx, *folderID)
	if err != nil {
		return fmt.Errorf("finding folder %d: %w", *folderID, err)
	}
	if folder == nil {
		return NewError(KindNotFound, "folder %d not found", *folderID)
	}
	if folder.OwnerID != ownerID {
		return NewError(KindAccessDenied, "folder access denied")
	}
	return nil
}

// newStorageFilename returns {yyyymmddHHMMSS}_{random8}{.ext}. The original
// name only contributes its transliterated extension.
func (r *FileRegistry) newStorageFilename(originalName string) string {
	var token strings.Builder
	for _, c := range strings.ToLower(r.idgen.New()) {
		if isASCIIAlnum(c) {
			token.WriteRune(c)
			if token.Len() == 8 {
				break
			}
		}
	}
	name := r.clock.Now().UTC().Format("20060102150405") + "_" + token.String()
	if ext := Transliterate(strings.TrimPrefix(path.Ext(originalName), ".")); ext != "" {
		name += "." + ext
	}
	return name
}

// uniqueFilename appends _1, _2, ... before the extension until filename
// differs from every name in taken.
func uniqueFilename(filename string, taken []string) string {
	used := make(map[string]bool, len(taken))
	for _, t := range taken {
		used[t] = true
	}
	if !used[filename] {
		return filename
	}
	ext := path.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !used[candidate] {
			return candidate
		}
	}
}

func storageFilenames(files []*File) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.StorageFilename
	}
	return names
}

// Upload validates req against the caller's policy, writes the bytes to the
// backend and only then records the file with a fresh virtual id.
func (r *FileRegistry) Upload(ctx context.Context, caller Caller, req UploadRequest) (*File, error) {
	req.OriginalName = strings.TrimSpace(req.OriginalName)
	if err := req.Validate(PolicyFor(caller.Role)); err != nil {
		return nil, NewError(KindValidation, "invalid upload %q: %v", req.OriginalName, err)
	}
	if err := r.findTargetFolder(ctx, caller.UserID, req.FolderID); err != nil {
		return nil, err
	}

	existing, err := r.db.ListFiles(ctx, caller.UserID, req.FolderID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	filename := uniqueFilename(r.newStorageFilename(req.OriginalName), storageFilenames(existing))

	physical, virtual, err := r.paths.placement(ctx, caller.UserID, req.FolderID, filename, req.OriginalName)
	if err != nil {
		return nil, err
	}

	// One byte past Size lets the backend see an understated size as a mismatch.
	res, err := r.backend.Upload(ctx, io.LimitReader(req.Reader, req.Size+1), req.Size, physical, req.MIMEType)
	if err != nil {
		return nil, WrapError(KindBackendWrite, err, "storing %q", req.OriginalName)
	}

	file := &File{
		VirtualID:       sql.NullString{String: r.idgen.New(), Valid: true},
		OriginalName:    req.OriginalName,
		StorageFilename: filename,
		Path:            res.ResolvedPath,
		VirtualPath:     virtual,
		MimeType:        req.MIMEType,
		Size:            res.Size,
		OwnerID:         caller.UserID,
		CreatedAt:       r.clock.Now(),
	}
	if req.FolderID != nil {
		file.FolderID = sql.NullInt64{Int64: *req.FolderID, Valid: true}
	}

	created, err := r.db.CreateFile(ctx, file)
	if err != nil {
		if delErr := r.backend.Delete(ctx, res.ResolvedPath); delErr != nil {
			r.logger.Warn("failed to remove object after metadata failure", "path", res.ResolvedPath, "error", delErr)
		}
		return nil, fmt.Errorf("recording file: %w", err)
	}

	r.logger.Info("file uploaded",
		"id", created.ID,
		"name", created.OriginalName,
		"path", created.Path,
		"size", created.Size,
		"backend", r.backend.Kind(),
	)
	return created, nil
}

// Get returns a file the caller may view.
func (r *FileRegistry) Get(ctx context.Context, caller Caller, fileID int64) (*File, error) {
	file, err := r.find(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !caller.canView(file.OwnerID) {
		return nil, NewError(KindAccessDenied, "file %d belongs to another owner", fileID)
	}
	return file, nil
}

// FileURL returns the stable URL of a file: /files/virtual/{virtualID}, or
// /files/{id} for files without a virtual id.
func FileURL(file *File) string {
	if file.VirtualID.Valid && file.VirtualID.String != "" {
		return "/files/virtual/" + file.VirtualID.String
	}
	return fmt.Sprintf("/files/%d", file.ID)
}

// URL returns the stable URL of a file.
func (r *FileRegistry) URL(ctx context.Context, caller Caller, fileID int64) (string, error) {
	file, err := r.Get(ctx, caller, fileID)
	if err != nil {
		return "", err
	}
	return FileURL(file), nil
}

// PublicURL returns the backend URL of the stored physical path.
func (r *FileRegistry) PublicURL(ctx context.Context, caller Caller, fileID int64) (string, error) {
	file, err := r.Get(ctx, caller, fileID)
	if err != nil {
		return "", err
	}
	url, err := r.backend.URL(ctx, file.Path)
	if err != nil {
		return "", fmt.Errorf("getting url of %s: %w", file.Path, err)
	}
	return url, nil
}

// List returns the files in folderID, or the caller's root files.
func (r *FileRegistry) List(ctx context.Context, caller Caller, folderID *int64) ([]*File, error) {
	ownerID := caller.UserID
	if folderID != nil {
		folder, err := r.db.FindFolderByID(ctx, *folderID)
		if err != nil {
			return nil, fmt.Errorf("finding folder %d: %w", *folderID, err)
		}
		if folder == nil {
			return nil, NewError(KindNotFound, "folder %d not found", *folderID)
		}
		if !caller.canView(folder.OwnerID) {
			return nil, NewError(KindAccessDenied, "folder %d belongs to another owner", *folderID)
		}
		ownerID = folder.OwnerID
	}
	files, err := r.db.ListFiles(ctx, ownerID, folderID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return files, nil
}

// Delete removes a file. Without force a file used by content fails with
// KindInUse listing the usages; with force the usages are logged and
// ignored. The backend object is deleted first, then the explicit links,
// then the row.
func (r *FileRegistry) Delete(ctx context.Context, caller Caller, fileID int64, force bool) (bool, error) {
	file, err := r.find(ctx, fileID)
	if err != nil {
		return false, err
	}
	if !caller.canManage(file.OwnerID) {
		return false, NewError(KindAccessDenied, "file %d belongs to another owner", fileID)
	}

	usages, err := r.guard.usagesOf(ctx, []*File{file})
	if err != nil {
		return false, err
	}
	if found := usages[file.ID]; len(found) > 0 {
		if !force {
			return false, &Error{
				Kind:    KindInUse,
				Message: fmt.Sprintf("file %q is used by %d content items", file.OriginalName, len(found)),
				Usages:  found,
			}
		}
		r.logger.Warn("force deleting file in use",
			"id", file.ID,
			"name", file.OriginalName,
			"user", caller.UserID,
			"usages", describeUsages(found),
		)
	}

	if err := purgeFile(ctx, r.db, r.content, r.backend, r.logger, file); err != nil {
		return false, err
	}
	r.logger.Info("file deleted", "id", file.ID, "path", file.Path, "force", force)
	return true, nil
}

// Move places a file in another folder of the same owner. Directory
// backends move the object and record its new physical path; object
// storage keeps the physical key and only the virtual path changes.
func (r *FileRegistry) Move(ctx context.Context, caller Caller, fileID int64, newFolderID *int64) (*File, error) {
	file, err := r.find(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !caller.canManage(file.OwnerID) {
		return nil, NewError(KindAccessDenied, "file %d belongs to another owner", fileID)
	}
	if err := r.findTargetFolder(ctx, file.OwnerID, newFolderID); err != nil {
		return nil, err
	}
	current := folderIDOf(file)
	if (current == nil && newFolderID == nil) || (current != nil && newFolderID != nil && *current == *newFolderID) {
		return file, nil
	}

	loc := FileLocation{
		ID:              file.ID,
		FolderID:        newFolderID,
		StorageFilename: file.StorageFilename,
		Path:            file.Path,
	}

	dir, isDir := r.backend.(DirectoryBackend)
	if isDir {
		existing, err := r.db.ListFiles(ctx, file.OwnerID, newFolderID)
		if err != nil {
			return nil, fmt.Errorf("listing files: %w", err)
		}
		loc.StorageFilename = uniqueFilename(file.StorageFilename, storageFilenames(existing))
	}
	physical, virtual, err := r.paths.placement(ctx, file.OwnerID, newFolderID, loc.StorageFilename, file.OriginalName)
	if err != nil {
		return nil, err
	}
	loc.VirtualPath = virtual

	if isDir {
		if err := dir.MoveObject(ctx, file.Path, physical); err != nil {
			return nil, WrapError(KindBackendWrite, err, "moving %s to %s", file.Path, physical)
		}
		loc.Path = physical
	}

	if err := r.db.UpdateFileLocation(ctx, loc); err != nil {
		if isDir {
			if undoErr := dir.MoveObject(ctx, physical, file.Path); undoErr != nil {
				r.logger.Error("failed to move object back after move failure",
					"from", physical, "to", file.Path, "error", undoErr)
			}
		}
		return nil, fmt.Errorf("updating location of file %d: %w", fileID, err)
	}

	r.logger.Info("file moved", "id", file.ID, "from", file.VirtualPath, "to", virtual)
	return r.find(ctx, fileID)
}

// purgeFile deletes the backend object of file, tolerating failures, then
// its explicit links and its row.
func purgeFile(ctx context.Context, db Database, content ContentStore, backend StorageBackend, logger Logger, file *File) error {
	if err := backend.Delete(ctx, file.Path); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			logger.Warn("physical object already missing", "id", file.ID, "path", file.Path)
		} else {
			logger.Warn("failed to delete physical object", "id", file.ID, "path", file.Path, "error", err)
		}
	}
	if err := content.RemoveFileLinks(ctx, file.ID); err != nil {
		return fmt.Errorf("removing links to file %d: %w", file.ID, err)
	}
	if err := db.DeleteFile(ctx, file.ID); err != nil {
		return fmt.Errorf("deleting file %d: %w", file.ID, err)
	}
	return nil
}
