package vfs_test

import (
	"context"
	"database/sql"
	"testing"

	"vfs-go/internal/testutil"
	"vfs-go/internal/vfs"
)

func TestPathResolver_FolderPathsFollowParentChain(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t, testutil.NewTestBackend())

	// A small tree with Unicode, punctuation and colliding names.
	names := [][]string{
		{"Отчёты", "Docs & Notes"},
		{"2024", "Ελλάδα", "2024!"},
		{"Q1: январь", "Café"},
	}
	var all []*vfs.Folder
	parents := []*int64{nil}
	for _, level := range names {
		var next []*int64
		for _, p := range parents {
			for _, n := range level {
				f := mustCreate(t, env, owner1, n, p)
				all = append(all, f)
				id := f.ID
				next = append(next, &id)
			}
		}
		parents = next
	}

	byID := make(map[int64]*vfs.Folder, len(all))
	for _, f := range all {
		byID[f.ID] = f
	}

	for _, f := range all {
		physical, err := env.Paths.PhysicalPathOfFolder(ctx, f.ID)
		if err != nil {
			t.Fatalf("PhysicalPathOfFolder(%d) error = %v", f.ID, err)
		}
		virtual, err := env.Paths.VirtualPathOfFolder(ctx, f.ID)
		if err != nil {
			t.Fatalf("VirtualPathOfFolder(%d) error = %v", f.ID, err)
		}

		wantPhysical := "user_1/" + vfs.Segment(f.Name)
		wantVirtual := "/user_1/" + f.Name
		if f.ParentID.Valid {
			parentPhysical, _ := env.Paths.PhysicalPathOfFolder(ctx, f.ParentID.Int64)
			parentVirtual, _ := env.Paths.VirtualPathOfFolder(ctx, f.ParentID.Int64)
			wantPhysical = parentPhysical + "/" + vfs.Segment(f.Name)
			wantVirtual = parentVirtual + "/" + f.Name
		}

		if physical != wantPhysical {
			t.Errorf("PhysicalPathOfFolder(%q) = %q, want %q", f.Name, physical, wantPhysical)
		}
		if virtual != wantVirtual {
			t.Errorf("VirtualPathOfFolder(%q) = %q, want %q", f.Name, virtual, wantVirtual)
		}
		if f.Path != physical || f.VirtualPath != virtual {
			t.Errorf("stored paths of %q = %q, %q; derived %q, %q", f.Name, f.Path, f.VirtualPath, physical, virtual)
		}
	}
}

func TestPathResolver_MissingFolder(t *testing.T) {
	env := testutil.NewTestEnv(t, testutil.NewTestBackend())

	path, err := env.Paths.PhysicalPathOfFolder(context.Background(), 999)
	wantKind(t, err, vfs.ErrNotFound)
	if path != "" {
		t.Errorf("PhysicalPathOfFolder(missing) = %q, want empty", path)
	}
}

func TestPathResolver_FilePaths(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t, testutil.NewTestBackend())

	folder := mustCreate(t, env, owner1, "Отчёты", nil)
	inFolder := mustUpload(t, env, owner1, "x.pdf", []byte("pdf"), &folder.ID)
	atRoot := mustUpload(t, env, owner1, "Смета.pdf", []byte("pdf"), nil)

	tests := []struct {
		name        string
		file        *vfs.File
		wantPhys    string
		wantVirtual string
	}{
		{name: "in folder", file: inFolder, wantPhys: "user_1/otchety/" + inFolder.StorageFilename, wantVirtual: "/user_1/Отчёты/x.pdf"},
		{name: "at root", file: atRoot, wantPhys: "user_1/" + atRoot.StorageFilename, wantVirtual: "/user_1/Смета.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			physical, err := env.Paths.PhysicalPathOfFile(ctx, tt.file.ID)
			if err != nil {
				t.Fatalf("PhysicalPathOfFile() error = %v", err)
			}
			virtual, err := env.Paths.VirtualPathOfFile(ctx, tt.file.ID)
			if err != nil {
				t.Fatalf("VirtualPathOfFile() error = %v", err)
			}
			if physical != tt.wantPhys || tt.file.Path != tt.wantPhys {
				t.Errorf("physical = %q (stored %q), want %q", physical, tt.file.Path, tt.wantPhys)
			}
			if virtual != tt.wantVirtual || tt.file.VirtualPath != tt.wantVirtual {
				t.Errorf("virtual = %q (stored %q), want %q", virtual, tt.file.VirtualPath, tt.wantVirtual)
			}
		})
	}

	_, err := env.Paths.PhysicalPathOfFile(ctx, 999)
	wantKind(t, err, vfs.ErrNotFound)
}

// cyclicDB serves a parent chain that loops back on itself.
type cyclicDB struct {
	vfs.Database
	folders map[int64]*vfs.Folder
}

func (c *cyclicDB) FindFolderByID(ctx context.Context, id int64) (*vfs.Folder, error) {
	return c.folders[id], nil
}

func TestPathResolver_CycleIsAFault(t *testing.T) {
	db := &cyclicDB{folders: map[int64]*vfs.Folder{
		1: {ID: 1, Name: "a", OwnerID: 1, ParentID: sql.NullInt64{Int64: 2, Valid: true}},
		2: {ID: 2, Name: "b", OwnerID: 1, ParentID: sql.NullInt64{Int64: 1, Valid: true}},
	}}
	paths := vfs.NewPathResolver(db)

	_, err := paths.PhysicalPathOfFolder(context.Background(), 1)
	if err == nil {
		t.Fatal("PhysicalPathOfFolder() on a cycle succeeded")
	}
	if kind := vfs.KindOf(err); kind != "" {
		t.Errorf("KindOf() = %q, want an unexpected fault", kind)
	}
}

func TestPathHelpers(t *testing.T) {
	if got := vfs.OwnerRoot(7); got != "user_7" {
		t.Errorf("OwnerRoot() = %q", got)
	}
	if got := vfs.OwnerVirtualRoot(7); got != "/user_7" {
		t.Errorf("OwnerVirtualRoot() = %q", got)
	}
	if got := vfs.ChildPhysicalPath("", 7, "Мои файлы"); got != "user_7/moi_fayly" {
		t.Errorf("ChildPhysicalPath(root) = %q", got)
	}
	if got := vfs.ChildPhysicalPath("user_7/a", 7, "B c"); got != "user_7/a/b_c" {
		t.Errorf("ChildPhysicalPath() = %q", got)
	}
	if got := vfs.ChildVirtualPath("", 7, "Мои файлы"); got != "/user_7/Мои файлы" {
		t.Errorf("ChildVirtualPath(root) = %q", got)
	}
}
