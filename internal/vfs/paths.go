package vfs

import (
	"context"
	"fmt"
)

// OwnerRoot returns the physical namespace of an owner, e.g. "user_1".
func OwnerRoot(ownerID int64) string {
	return fmt.Sprintf("user_%d", ownerID)
}

// OwnerVirtualRoot returns the virtual namespace of an owner, e.g. "/user_1".
func OwnerVirtualRoot(ownerID int64) string {
	return "/" + OwnerRoot(ownerID)
}

// ChildPhysicalPath joins the segment of name under parentPath. An empty
// parentPath means the owner's root.
func ChildPhysicalPath(parentPath string, ownerID int64, name string) string {
	if parentPath == "" {
		parentPath = OwnerRoot(ownerID)
	}
	return parentPath + "/" + Segment(name)
}

// ChildVirtualPath joins the display name under parentVirtualPath. An empty
// parentVirtualPath means the owner's root.
func ChildVirtualPath(parentVirtualPath string, ownerID int64, name string) string {
	if parentVirtualPath == "" {
		parentVirtualPath = OwnerVirtualRoot(ownerID)
	}
	return parentVirtualPath + "/" + name
}

// PathResolver derives physical and virtual paths by walking the folder
// parent chain stored in the database.
type PathResolver struct {
	db Database
}

func NewPathResolver(db Database) *PathResolver {
	return &PathResolver{db: db}
}

// chain returns the folders from the root down to folderID.
func (p *PathResolver) chain(ctx context.Context, folderID int64) ([]*Folder, error) {
	var chain []*Folder
	seen := make(map[int64]bool)
	id := folderID
	for {
		if seen[id] {
			return nil, fmt.Errorf("folder %d: cycle in parent chain at folder %d", folderID, id)
		}
		seen[id] = true

		folder, err := p.db.FindFolderByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("finding folder %d: %w", id, err)
		}
		if folder == nil {
			return nil, NewError(KindNotFound, "folder %d not found", id)
		}
		chain = append(chain, folder)
		if !folder.ParentID.Valid {
			break
		}
		id = folder.ParentID.Int64
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// FolderPaths returns both paths of a folder with a single walk.
func (p *PathResolver) FolderPaths(ctx context.Context, folderID int64) (physical, virtual string, err error) {
	chain, err := p.chain(ctx, folderID)
	if err != nil {
		return "", "", err
	}
	for _, f := range chain {
		physical = ChildPhysicalPath(physical, f.OwnerID, f.Name)
		virtual = ChildVirtualPath(virtual, f.OwnerID, f.Name)
	}
	return physical, virtual, nil
}

// PhysicalPathOfFolder returns user_{owner}/seg/seg/... for a folder.
// A missing folder yields "" and a KindNotFound error.
func (p *PathResolver) PhysicalPathOfFolder(ctx context.Context, folderID int64) (string, error) {
	physical, _, err := p.FolderPaths(ctx, folderID)
	return physical, err
}

// VirtualPathOfFolder returns /user_{owner}/Name/Name/... for a folder.
func (p *PathResolver) VirtualPathOfFolder(ctx context.Context, folderID int64) (string, error) {
	_, virtual, err := p.FolderPaths(ctx, folderID)
	return virtual, err
}

// placement returns the paths a file named storageFilename/originalName
// gets inside folderID, or at the owner's root when folderID is nil.
func (p *PathResolver) placement(ctx context.Context, ownerID int64, folderID *int64, storageFilename, originalName string) (physical, virtual string, err error) {
	if folderID == nil {
		return OwnerRoot(ownerID) + "/" + storageFilename, OwnerVirtualRoot(ownerID) + "/" + originalName, nil
	}
	folderPhysical, folderVirtual, err := p.FolderPaths(ctx, *folderID)
	if err != nil {
		return "", "", err
	}
	return folderPhysical + "/" + storageFilename, folderVirtual + "/" + originalName, nil
}

func (p *PathResolver) findFile(ctx context.Context, fileID int64) (*File, error) {
	file, err := p.db.FindFileByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("finding file %d: %w", fileID, err)
	}
	if file == nil {
		return nil, NewError(KindNotFound, "file %d not found", fileID)
	}
	return file, nil
}

// PhysicalPathOfFile returns the derived backend key of a file.
func (p *PathResolver) PhysicalPathOfFile(ctx context.Context, fileID int64) (string, error) {
	file, err := p.findFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	physical, _, err := p.placement(ctx, file.OwnerID, folderIDOf(file), file.StorageFilename, file.OriginalName)
	return physical, err
}

// VirtualPathOfFile returns the derived virtual path of a file.
func (p *PathResolver) VirtualPathOfFile(ctx context.Context, fileID int64) (string, error) {
	file, err := p.findFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	_, virtual, err := p.placement(ctx, file.OwnerID, folderIDOf(file), file.StorageFilename, file.OriginalName)
	return virtual, err
}

func folderIDOf(file *File) *int64 {
	if !file.FolderID.Valid {
		return nil
	}
	id := file.FolderID.Int64
	return &id
}

func parentIDOf(folder *Folder) *int64 {
	if !folder.ParentID.Valid {
		return nil
	}
	id := folder.ParentID.Int64
	return &id
}
