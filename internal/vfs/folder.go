package vfs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxNameLength is the longest display name accepted, in characters.
const MaxNameLength = 255

// TreeNode is one folder of the tree returned by FolderTree.Tree.
type TreeNode struct {
	ID          int64       `json:"id"`
	VirtualID   string      `json:"virtualId"`
	Name        string      `json:"name"`
	Path        string      `json:"path"`
	VirtualPath string      `json:"virtualPath"`
	ParentID    *int64      `json:"parentId"`
	Children    []*TreeNode `json:"children"`
}

// DeleteResult lists what a folder delete removed.
type DeleteResult struct {
	DeletedFolderIDs []int64 `json:"deletedFolderIds"`
	DeletedFileIDs   []int64 `json:"deletedFileIds"`
	// PhysicalDeleteAttempts counts backend deletes issued, successful or not.
	PhysicalDeleteAttempts int `json:"physicalDeleteAttempts"`
}

// FolderTree owns folder creation, rename, deletion and traversal.
type FolderTree struct {
	db      Database
	content ContentStore
	backend StorageBackend
	paths   *PathResolver
	logger  Logger
	clock   Clock
	idgen   IDGenerator
}

func NewFolderTree(db Database, content ContentStore, backend StorageBackend, paths *PathResolver, logger Logger, clock Clock, idgen IDGenerator) *FolderTree {
	return &FolderTree{
		db:      db,
		content: content,
		backend: backend,
		paths:   paths,
		logger:  logger,
		clock:   clock,
		idgen:   idgen,
	}
}

var errPathSeparator = errors.New("must not contain / or \\")
var errEmptySegment = errors.New("must contain at least one letter or digit")

// validateName trims name and checks it can be used as a folder name.
func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	err := validation.Validate(name,
		validation.Required.Error("name is required"),
		validation.RuneLength(1, MaxNameLength),
		validation.By(func(value interface{}) error {
			if strings.ContainsAny(value.(string), `/\`) {
				return errPathSeparator
			}
			return nil
		}),
		validation.By(func(value interface{}) error {
			if Segment(value.(string)) == "" {
				return errEmptySegment
			}
			return nil
		}),
	)
	if err != nil {
		return "", NewError(KindValidation, "invalid folder name %q: %v", name, err)
	}
	return name, nil
}

func (t *FolderTree) find(ctx context.Context, folderID int64) (*Folder, error) {
	folder, err := t.db.FindFolderByID(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("finding folder %d: %w", folderID, err)
	}
	if folder == nil {
		return nil, NewError(KindNotFound, "folder %d not found", folderID)
	}
	return folder, nil
}

func folderNames(folders []*Folder, exclude int64) []string {
	names := make([]string, 0, len(folders))
	for _, f := range folders {
		if f.ID != exclude {
			names = append(names, f.Name)
		}
	}
	return names
}

// Get returns a folder the caller may view.
func (t *FolderTree) Get(ctx context.Context, caller Caller, folderID int64) (*Folder, error) {
	folder, err := t.find(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if !caller.canView(folder.OwnerID) {
		return nil, NewError(KindAccessDenied, "folder %d belongs to another owner", folderID)
	}
	return folder, nil
}

// Create makes a folder named name under parentID, or at the caller's root
// when parentID is nil. A name clash with a sibling gets a _N suffix.
func (t *FolderTree) Create(ctx context.Context, caller Caller, name string, parentID *int64) (*Folder, error) {
	if !PolicyFor(caller.Role).CanCreateFolders {
		return nil, NewError(KindAccessDenied, "role %s cannot create folders", caller.Role)
	}
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	var parentPhysical, parentVirtual string
	if parentID != nil {
		parent, err := t.db.FindFolderByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("finding parent folder: %w", err)
		}
		if parent == nil {
			return nil, NewError(KindNotFound, "parent folder %d not found", *parentID)
		}
		if parent.OwnerID != caller.UserID {
			return nil, NewError(KindAccessDenied, "parent folder %d belongs to another owner", *parentID)
		}
		parentPhysical, parentVirtual, err = t.paths.FolderPaths(ctx, parent.ID)
		if err != nil {
			return nil, err
		}
	}

	siblings, err := t.db.ListFolders(ctx, caller.UserID, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing sibling folders: %w", err)
	}
	name = UniqueName(name, folderNames(siblings, 0))

	now := t.clock.Now()
	folder := &Folder{
		VirtualID:   t.idgen.New(),
		Name:        name,
		Path:        ChildPhysicalPath(parentPhysical, caller.UserID, name),
		VirtualPath: ChildVirtualPath(parentVirtual, caller.UserID, name),
		OwnerID:     caller.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if parentID != nil {
		folder.ParentID.Int64, folder.ParentID.Valid = *parentID, true
	}

	if dir, ok := t.backend.(DirectoryBackend); ok {
		if err := dir.CreateDir(ctx, folder.Path); err != nil {
			return nil, WrapError(KindBackendWrite, err, "creating directory %s", folder.Path)
		}
	}

	created, err := t.db.CreateFolder(ctx, folder)
	if err != nil {
		if dir, ok := t.backend.(DirectoryBackend); ok {
			if rmErr := dir.RemoveDir(ctx, folder.Path); rmErr != nil {
				t.logger.Warn("failed to remove directory", "path", folder.Path, "error", rmErr)
			}
		}
		return nil, fmt.Errorf("creating folder: %w", err)
	}

	t.logger.Info("folder created", "id", created.ID, "path", created.Path, "owner", created.OwnerID)
	return created, nil
}

// Rename gives a folder a new display name and rewrites the stored paths of
// the folder, every descendant folder and every file below it.
//
// The subtree is read once as a snapshot and all rewrites are derived from
// the renamed folder downwards, then committed in one transaction. Directory
// backends move the directory first; object storage keeps file keys pinned
// and only the virtual paths of files change.
func (t *FolderTree) Rename(ctx context.Context, caller Caller, folderID int64, newName string) (*Folder, error) {
	name, err := validateName(newName)
	if err != nil {
		return nil, err
	}
	folder, err := t.find(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if !caller.canManage(folder.OwnerID) {
		return nil, NewError(KindAccessDenied, "folder %d belongs to another owner", folderID)
	}

	snapshot, err := t.db.LoadSubtree(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("loading subtree of folder %d: %w", folderID, err)
	}
	if len(snapshot.Folders) == 0 {
		return nil, NewError(KindNotFound, "folder %d not found", folderID)
	}
	root := snapshot.Folders[0]

	siblings, err := t.db.ListFolders(ctx, root.OwnerID, parentIDOf(root))
	if err != nil {
		return nil, fmt.Errorf("listing sibling folders: %w", err)
	}
	name = UniqueName(name, folderNames(siblings, root.ID))

	var parentPhysical, parentVirtual string
	if root.ParentID.Valid {
		parentPhysical, parentVirtual, err = t.paths.FolderPaths(ctx, root.ParentID.Int64)
		if err != nil {
			return nil, err
		}
	}
	renamed := FolderRewrite{
		ID:          root.ID,
		Name:        name,
		Path:        ChildPhysicalPath(parentPhysical, root.OwnerID, name),
		VirtualPath: ChildVirtualPath(parentVirtual, root.OwnerID, name),
	}

	dir, isDir := t.backend.(DirectoryBackend)
	moved := false
	if isDir && root.Path != renamed.Path {
		if err := dir.MoveDir(ctx, root.Path, renamed.Path); err != nil {
			return nil, WrapError(KindBackendWrite, err, "moving directory %s to %s", root.Path, renamed.Path)
		}
		moved = true
	}

	folders, files := planRewrites(snapshot, renamed, isDir)
	if err := t.db.ApplyPathRewrites(ctx, folders, files); err != nil {
		if moved {
			if undoErr := dir.MoveDir(ctx, renamed.Path, root.Path); undoErr != nil {
				t.logger.Error("failed to move directory back after rename failure",
					"from", renamed.Path, "to", root.Path, "error", undoErr)
			}
		}
		return nil, fmt.Errorf("rewriting paths under folder %d: %w", folderID, err)
	}

	t.logger.Info("folder renamed",
		"id", root.ID,
		"from", root.VirtualPath,
		"to", renamed.VirtualPath,
		"folders", len(folders),
		"files", len(files),
	)
	return t.find(ctx, folderID)
}

// planRewrites derives the new paths of every folder and file in snapshot
// from the rewrite of its root, parents before children. File physical
// paths follow their folder only when movePhysical is set.
func planRewrites(snapshot *Subtree, root FolderRewrite, movePhysical bool) ([]FolderRewrite, []FileRewrite) {
	children := make(map[int64][]*Folder)
	for _, f := range snapshot.Folders {
		if f.ParentID.Valid && f.ID != root.ID {
			children[f.ParentID.Int64] = append(children[f.ParentID.Int64], f)
		}
	}
	filesIn := make(map[int64][]*File)
	for _, f := range snapshot.Files {
		if f.FolderID.Valid {
			filesIn[f.FolderID.Int64] = append(filesIn[f.FolderID.Int64], f)
		}
	}

	var folders []FolderRewrite
	var files []FileRewrite
	var walk func(fr FolderRewrite)
	walk = func(fr FolderRewrite) {
		folders = append(folders, fr)
		for _, f := range filesIn[fr.ID] {
			rw := FileRewrite{ID: f.ID, Path: f.Path, VirtualPath: fr.VirtualPath + "/" + f.OriginalName}
			if movePhysical {
				rw.Path = fr.Path + "/" + f.StorageFilename
			}
			files = append(files, rw)
		}
		for _, child := range children[fr.ID] {
			walk(FolderRewrite{
				ID:          child.ID,
				Name:        child.Name,
				Path:        ChildPhysicalPath(fr.Path, child.OwnerID, child.Name),
				VirtualPath: ChildVirtualPath(fr.VirtualPath, child.OwnerID, child.Name),
			})
		}
	}
	walk(root)
	return folders, files
}

// Delete removes a folder. Without force a folder that still has child
// folders or files is rejected with KindNotEmpty and nothing changes. With
// force the whole subtree is removed depth-first, files before their
// folder, children before their parent.
func (t *FolderTree) Delete(ctx context.Context, caller Caller, folderID int64, force bool) (*DeleteResult, error) {
	folder, err := t.find(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if !caller.canManage(folder.OwnerID) {
		return nil, NewError(KindAccessDenied, "folder %d belongs to another owner", folderID)
	}

	if !force {
		childFolders, childFiles, err := t.db.CountFolderContents(ctx, folderID)
		if err != nil {
			return nil, fmt.Errorf("counting contents of folder %d: %w", folderID, err)
		}
		if childFolders > 0 || childFiles > 0 {
			return nil, NewError(KindNotEmpty, "folder %q contains %d folders and %d files",
				folder.Name, childFolders, childFiles)
		}
	}

	result := &DeleteResult{}
	if err := t.deleteRecursive(ctx, folder, result); err != nil {
		return result, err
	}

	t.logger.Info("folder deleted",
		"id", folder.ID,
		"path", folder.VirtualPath,
		"force", force,
		"folders", len(result.DeletedFolderIDs),
		"files", len(result.DeletedFileIDs),
	)
	return result, nil
}

func (t *FolderTree) deleteRecursive(ctx context.Context, folder *Folder, result *DeleteResult) error {
	files, err := t.db.ListFiles(ctx, folder.OwnerID, &folder.ID)
	if err != nil {
		return fmt.Errorf("listing files of folder %d: %w", folder.ID, err)
	}
	for _, f := range files {
		result.PhysicalDeleteAttempts++
		if err := purgeFile(ctx, t.db, t.content, t.backend, t.logger, f); err != nil {
			return err
		}
		result.DeletedFileIDs = append(result.DeletedFileIDs, f.ID)
	}

	children, err := t.db.ListFolders(ctx, folder.OwnerID, &folder.ID)
	if err != nil {
		return fmt.Errorf("listing children of folder %d: %w", folder.ID, err)
	}
	for _, child := range children {
		if err := t.deleteRecursive(ctx, child, result); err != nil {
			return err
		}
	}

	if err := t.db.DeleteFolder(ctx, folder.ID); err != nil {
		return fmt.Errorf("deleting folder %d: %w", folder.ID, err)
	}
	result.DeletedFolderIDs = append(result.DeletedFolderIDs, folder.ID)

	if dir, ok := t.backend.(DirectoryBackend); ok {
		if err := dir.RemoveDir(ctx, folder.Path); err != nil {
			t.logger.Warn("failed to remove directory", "path", folder.Path, "error", err)
		}
	}
	return nil
}

// ListChildren returns the folders directly under parentID ordered by name,
// or the caller's root folders when parentID is nil.
func (t *FolderTree) ListChildren(ctx context.Context, caller Caller, parentID *int64) ([]*Folder, error) {
	ownerID := caller.UserID
	if parentID != nil {
		parent, err := t.Get(ctx, caller, *parentID)
		if err != nil {
			return nil, err
		}
		ownerID = parent.OwnerID
	}
	folders, err := t.db.ListFolders(ctx, ownerID, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}

// Tree returns the full folder forest of ownerID with children materialised.
func (t *FolderTree) Tree(ctx context.Context, caller Caller, ownerID int64) ([]*TreeNode, error) {
	if !caller.canView(ownerID) {
		return nil, NewError(KindAccessDenied, "cannot view folders of owner %d", ownerID)
	}
	all, err := t.db.ListFoldersByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing folders of owner %d: %w", ownerID, err)
	}

	// First pass: one node per folder.
	nodes := make(map[int64]*TreeNode, len(all))
	for _, f := range all {
		nodes[f.ID] = &TreeNode{
			ID:          f.ID,
			VirtualID:   f.VirtualID,
			Name:        f.Name,
			Path:        f.Path,
			VirtualPath: f.VirtualPath,
			ParentID:    parentIDOf(f),
			Children:    []*TreeNode{},
		}
	}

	// Second pass: attach children. all is ordered by name so siblings are too.
	roots := make([]*TreeNode, 0)
	for _, f := range all {
		node := nodes[f.ID]
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*node.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}

	t.logger.Debug("folder tree built", "owner", ownerID, "folders", len(all))
	return roots, nil
}
