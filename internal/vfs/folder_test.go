package vfs_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"vfs-go/internal/testutil"
	"vfs-go/internal/vfs"
)

func TestFolderTree_Create(t *testing.T) {
	ctx := context.Background()

	forEachBackend(t, func(t *testing.T, env *testutil.Env) {
		root := mustCreate(t, env, owner1, "Отчёты", nil)
		if root.Path != "user_1/otchety" || root.VirtualPath != "/user_1/Отчёты" {
			t.Errorf("root paths = %q, %q", root.Path, root.VirtualPath)
		}
		if root.ParentID.Valid || root.OwnerID != 1 || root.VirtualID == "" {
			t.Errorf("root = %+v", root)
		}

		child := mustCreate(t, env, owner1, "2024", &root.ID)
		if child.Path != "user_1/otchety/2024" || child.VirtualPath != "/user_1/Отчёты/2024" {
			t.Errorf("child paths = %q, %q", child.Path, child.VirtualPath)
		}
		if !child.ParentID.Valid || child.ParentID.Int64 != root.ID {
			t.Errorf("child.ParentID = %v, want %d", child.ParentID, root.ID)
		}

		if isDirectoryBackend(env.Backend) && !env.Backend.Exists(ctx, child.Path) {
			t.Error("directory backend: directory not created")
		}
	})
}

func TestFolderTree_CreateValidation(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "blank", in: "   "},
		{name: "too long", in: strings.Repeat("a", vfs.MaxNameLength+1)},
		{name: "slash", in: "a/b"},
		{name: "backslash", in: `a\b`},
		{name: "emoji only", in: "📁📁"},
		{name: "punctuation only", in: "!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewTestEnv(t, testutil.NewTestBackend())

			_, err := env.Folders.Create(context.Background(), owner1, tt.in, nil)
			wantKind(t, err, vfs.ErrValidation)
			if folders, _ := counts(t, env); folders != 0 {
				t.Errorf("folders = %d after failed create", folders)
			}
		})
	}

	t.Run("longest name accepted", func(t *testing.T) {
		env := testutil.NewTestEnv(t, testutil.NewTestBackend())
		mustCreate(t, env, owner1, strings.Repeat("я", vfs.MaxNameLength), nil)
	})

	t.Run("name is trimmed", func(t *testing.T) {
		env := testutil.NewTestEnv(t, testutil.NewTestBackend())
		f := mustCreate(t, env, owner1, "  Docs  ", nil)
		if f.Name != "Docs" {
			t.Errorf("Name = %q, want Docs", f.Name)
		}
	})
}

func TestFolderTree_CreateCollisions(t *testing.T) {
	env := testutil.NewTestEnv(t, testutil.NewTestBackend())

	first := mustCreate(t, env, owner1, "Отчёты", nil)
	second := mustCreate(t, env, owner1, "Отчёты", nil)
	third := mustCreate(t, env, owner1, "отчеты", nil)

	if first.Name != "Отчёты" || first.Path != "user_1/otchety" {
		t.Errorf("first = %q %q", first.Name, first.Path)
	}
	if second.Name != "Отчёты_1" || second.Path != "user_1/otchety_1" {
		t.Errorf("second = %q %q", second.Name, second.Path)
	}
	// "отчеты" shares its segment with both existing siblings.
	if third.Name != "отчеты_2" || third.Path != "user_1/otchety_2" {
		t.Errorf("third = %q %q", third.Name, third.Path)
	}

	// Other owners have their own namespace.
	other := mustCreate(t, env, owner2, "Отчёты", nil)
	if other.Name != "Отчёты" || other.Path != "user_2/otchety" {
		t.Errorf("other owner = %q %q", other.Name, other.Path)
	}
}

func TestFolderTree_CreateErrors(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t, testutil.NewTestBackend())
	theirs := mustCreate(t, env, owner2, "Theirs", nil)

	t.Run("parent not found", func(t *testing.T) {
		missing := int64(999)
		_, err := env.Folders.Create(ctx, owner1, "Docs", &missing)
		wantKind(t, err, vfs.ErrNotFound)
	})

	t.Run("parent of another owner", func(t *testing.T) {
		_, err := env.Folders.Create(ctx, owner1, "Docs", &theirs.ID)
		wantKind(t, err, vfs.ErrAccessDenied)
	})

	t.Run("parent of another owner as admin", func(t *testing.T) {
		_, err := env.Folders.Create(ctx, admin, "Docs", &theirs.ID)
		wantKind(t, err, vfs.ErrAccessDenied)
	})

	t.Run("role cannot create folders", func(t *testing.T) {
		_, err := env.Folders.Create(ctx, vfs.Caller{UserID: 1, Role: vfs.Role(99)}, "Docs", nil)
		wantKind(t, err, vfs.ErrAccessDenied)
	})
}

// assertDerivedPaths checks the stored paths of every folder and file of an
// owner against the paths derived from the parent chain.
func assertDerivedPaths(t *testing.T, env *testutil.Env, ownerID int64) {
	t.Helper()
	ctx := context.Background()

	folders, err := env.DB.ListFoldersByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("ListFoldersByOwner() error = %v", err)
	}
	for _, f := range folders {
		physical, virtual, err := env.Paths.FolderPaths(ctx, f.ID)
		if err != nil {
			t.Fatalf("FolderPaths(%d) error = %v", f.ID, err)
		}
		if f.Path != physical || f.VirtualPath != virtual {
			t.Errorf("folder %q stored (%q, %q), derived (%q, %q)", f.Name, f.Path, f.VirtualPath, physical, virtual)
		}

		id := f.ID
		files, err := env.DB.ListFiles(ctx, ownerID, &id)
		if err != nil {
			t.Fatalf("ListFiles() error = %v", err)
		}
		for _, file := range files {
			virtual, err := env.Paths.VirtualPathOfFile(ctx, file.ID)
			if err != nil {
				t.Fatalf("VirtualPathOfFile() error = %v", err)
			}
			if file.VirtualPath != virtual {
				t.Errorf("file %q virtual stored %q, derived %q", file.OriginalName, file.VirtualPath, virtual)
			}
			if !isDirectoryBackend(env.Backend) {
				continue
			}
			physical, err := env.Paths.PhysicalPathOfFile(ctx, file.ID)
			if err != nil {
				t.Fatalf("PhysicalPathOfFile() error = %v", err)
			}
			if file.Path != physical {
				t.Errorf("file %q physical stored %q, derived %q", file.OriginalName, file.Path, physical)
			}
		}
	}
}

func TestFolderTree_Rename(t *testing.T) {
	ctx := context.Background()

	forEachBackend(t, func(t *testing.T, env *testutil.Env) {
		root := mustCreate(t, env, owner1, "Отчёты", nil)
		year := mustCreate(t, env, owner1, "2024", &root.ID)
		q1 := mustCreate(t, env, owner1, "Q1", &year.ID)
		sibling := mustCreate(t, env, owner1, "Other", nil)
		x := mustUpload(t, env, owner1, "x.pdf", []byte("x"), &year.ID)
		y := mustUpload(t, env, owner1, "y.pdf", []byte("y"), &q1.ID)
		z := mustUpload(t, env, owner1, "z.pdf", []byte("z"), &sibling.ID)

		renamed, err := env.Folders.Rename(ctx, owner1, root.ID, "Архив")
		if err != nil {
			t.Fatalf("Rename() error = %v", err)
		}
		if renamed.Name != "Архив" || renamed.Path != "user_1/arhiv" || renamed.VirtualPath != "/user_1/Архив" {
			t.Errorf("renamed = %q %q %q", renamed.Name, renamed.Path, renamed.VirtualPath)
		}

		assertDerivedPaths(t, env, 1)

		gotX, _ := env.DB.FindFileByID(ctx, x.ID)
		gotY, _ := env.DB.FindFileByID(ctx, y.ID)
		gotZ, _ := env.DB.FindFileByID(ctx, z.ID)
		if gotX.VirtualPath != "/user_1/Архив/2024/x.pdf" || gotY.VirtualPath != "/user_1/Архив/2024/Q1/y.pdf" {
			t.Errorf("virtual paths = %q, %q", gotX.VirtualPath, gotY.VirtualPath)
		}
		if gotZ.VirtualPath != z.VirtualPath || gotZ.Path != z.Path {
			t.Error("file outside the renamed subtree changed")
		}

		if isDirectoryBackend(env.Backend) {
			if gotX.Path != "user_1/arhiv/2024/"+x.StorageFilename {
				t.Errorf("x.Path = %q, want moved with its folder", gotX.Path)
			}
			if env.Backend.Exists(ctx, x.Path) {
				t.Error("old directory still holds the object")
			}
		} else if gotX.Path != x.Path || gotY.Path != y.Path {
			t.Errorf("object storage keys changed: %q, %q", gotX.Path, gotY.Path)
		}
		for _, f := range []*vfs.File{gotX, gotY, gotZ} {
			if !env.Backend.Exists(ctx, f.Path) {
				t.Errorf("object of %q missing at stored path %q", f.OriginalName, f.Path)
			}
		}
	})
}

func TestFolderTree_RenameCollisionsAndNoop(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t, testutil.NewTestBackend())

	a := mustCreate(t, env, owner1, "A", nil)
	mustCreate(t, env, owner1, "B", nil)
	env.Clock.Advance(time.Hour)

	got, err := env.Folders.Rename(ctx, owner1, a.ID, "B")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if got.Name != "B_1" || got.Path != "user_1/b_1" {
		t.Errorf("Rename() onto sibling = %q %q, want B_1", got.Name, got.Path)
	}
	if !got.UpdatedAt.Equal(env.Clock.Now()) || !got.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("timestamps = created %v, updated %v", got.CreatedAt, got.UpdatedAt)
	}

	same, err := env.Folders.Rename(ctx, owner1, a.ID, "B_1")
	if err != nil {
		t.Fatalf("Rename() to same name error = %v", err)
	}
	if same.Name != "B_1" {
		t.Errorf("Rename() to own name = %q, want unchanged", same.Name)
	}
}

func TestFolderTree_RenameErrors(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t, testutil.NewTestBackend())
	f := mustCreate(t, env, owner1, "Docs", nil)

	t.Run("not found", func(t *testing.T) {
		_, err := env.Folders.Rename(ctx, owner1, 999, "New")
		wantKind(t, err, vfs.ErrNotFound)
	})

	t.Run("other owner", func(t *testing.T) {
		_, err := env.Folders.Rename(ctx, owner2, f.ID, "New")
		wantKind(t, err, vfs.ErrAccessDenied)
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := env.Folders.Rename(ctx, owner1, f.ID, "a/b")
		wantKind(t, err, vfs.ErrValidation)
	})

	t.Run("editor may rename others", func(t *testing.T) {
		got, err := env.Folders.Rename(ctx, editor, f.ID, "Shared")
		if err != nil {
			t.Fatalf("Rename() error = %v", err)
		}
		if got.OwnerID != 1 || got.Path != "user_1/shared" {
			t.Errorf("got = %+v, want owner kept", got)
		}
	})
}

func TestFolderTree_RenameBackendFailureChangesNothing(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewTestFilesystemBackend(t)
	env := testutil.NewTestEnv(t, backend)

	f := mustCreate(t, env, owner1, "Old", nil)
	file := mustUpload(t, env, owner1, "a.pdf", []byte("a"), &f.ID)
	// An unrelated directory already occupies the target path.
	if err := backend.CreateDir(ctx, "user_1/new"); err != nil {
		t.Fatal(err)
	}

	_, err := env.Folders.Rename(ctx, owner1, f.ID, "New")
	wantKind(t, err, vfs.ErrBackendWrite)

	got, _ := env.DB.FindFolderByID(ctx, f.ID)
	if got.Name != "Old" || got.Path != "user_1/old" {
		t.Errorf("folder = %q %q, want unchanged", got.Name, got.Path)
	}
	gotFile, _ := env.DB.FindFileByID(ctx, file.ID)
	if gotFile.Path != file.Path || !backend.Exists(ctx, file.Path) {
		t.Errorf("file moved despite failed rename: %q", gotFile.Path)
	}
}

func TestFolderTree_DeleteNotEmpty(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t, testutil.NewTestBackend())

	root := mustCreate(t, env, owner1, "Root", nil)
	mustCreate(t, env, owner1, "Child", &root.ID)
	withFile := mustCreate(t, env, owner1, "WithFile", nil)
	mustUpload(t, env, owner1, "a.pdf", []byte("a"), &withFile.ID)

	for _, id := range []int64{root.ID, withFile.ID} {
		beforeFolders, beforeFiles := counts(t, env)

		_, err := env.Folders.Delete(ctx, owner1, id, false)
		wantKind(t, err, vfs.ErrNotEmpty)

		afterFolders, afterFiles := counts(t, env)
		if afterFolders != beforeFolders || afterFiles != beforeFiles {
			t.Errorf("counts changed from (%d, %d) to (%d, %d)", beforeFolders, beforeFiles, afterFolders, afterFiles)
		}
	}
}

func TestFolderTree_DeleteForce(t *testing.T) {
	ctx := context.Background()

	forEachBackend(t, func(t *testing.T, env *testutil.Env) {
		root := mustCreate(t, env, owner1, "Root", nil)
		child := mustCreate(t, env, owner1, "Child", &root.ID)
		grand := mustCreate(t, env, owner1, "Grand", &child.ID)
		keep := mustCreate(t, env, owner1, "Keep", nil)
		files := []*vfs.File{
			mustUpload(t, env, owner1, "a.pdf", []byte("a"), &root.ID),
			mustUpload(t, env, owner1, "b.pdf", []byte("b"), &child.ID),
			mustUpload(t, env, owner1, "c.pdf", []byte("c"), &grand.ID),
			mustUpload(t, env, owner1, "d.pdf", []byte("d"), &grand.ID),
		}
		kept := mustUpload(t, env, owner1, "e.pdf", []byte("e"), &keep.ID)

		article, err := env.DB.CreateArticle(ctx, "News", "")
		if err != nil {
			t.Fatal(err)
		}
		if err := env.DB.LinkFile(ctx, article.ID, files[2].ID); err != nil {
			t.Fatal(err)
		}

		result, err := env.Folders.Delete(ctx, owner1, root.ID, true)
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		if len(result.DeletedFolderIDs) != 3 || len(result.DeletedFileIDs) != 4 {
			t.Errorf("result = %+v, want 3 folders and 4 files", result)
		}
		if result.PhysicalDeleteAttempts != len(result.DeletedFileIDs) {
			t.Errorf("PhysicalDeleteAttempts = %d, want %d", result.PhysicalDeleteAttempts, len(result.DeletedFileIDs))
		}
		// Children are removed before their parent.
		if result.DeletedFolderIDs[0] != grand.ID || result.DeletedFolderIDs[2] != root.ID {
			t.Errorf("DeletedFolderIDs = %v, want grand first and root last", result.DeletedFolderIDs)
		}

		folders, fileCount := counts(t, env)
		if folders != 1 || fileCount != 1 {
			t.Errorf("counts = %d folders, %d files, want 1, 1", folders, fileCount)
		}
		for _, f := range files {
			if env.Backend.Exists(ctx, f.Path) {
				t.Errorf("object %q still exists", f.Path)
			}
		}
		if !env.Backend.Exists(ctx, kept.Path) {
			t.Error("object outside the subtree was deleted")
		}
		if isDirectoryBackend(env.Backend) && env.Backend.Exists(ctx, root.Path) {
			t.Error("directory backend: directory of deleted folder remains")
		}

		linked, err := env.DB.ListArticleFiles(ctx, article.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(linked) != 0 {
			t.Errorf("article still links %d deleted files", len(linked))
		}

		_, err = env.Folders.Delete(ctx, owner1, root.ID, true)
		wantKind(t, err, vfs.ErrNotFound)
	})
}

func TestFolderTree_DeleteToleratesBackendFailures(t *testing.T) {
	ctx := context.Background()
	backend := testutil.NewRecordingBackend(testutil.NewTestBackend())
	backend.DeleteErr = vfs.NewError(vfs.KindBackendDelete, "bucket unavailable")
	env := testutil.NewTestEnv(t, backend)

	root := mustCreate(t, env, owner1, "Root", nil)
	child := mustCreate(t, env, owner1, "Child", &root.ID)
	mustUpload(t, env, owner1, "a.pdf", []byte("a"), &root.ID)
	mustUpload(t, env, owner1, "b.pdf", []byte("b"), &child.ID)
	mustUpload(t, env, owner1, "c.pdf", []byte("c"), &child.ID)

	result, err := env.Folders.Delete(ctx, owner1, root.ID, true)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if result.PhysicalDeleteAttempts != 3 || len(backend.Deletes()) != 3 {
		t.Errorf("attempts = %d, backend deletes = %d, want 3", result.PhysicalDeleteAttempts, len(backend.Deletes()))
	}
	if folders, files := counts(t, env); folders != 0 || files != 0 {
		t.Errorf("counts = %d, %d, want database cleaned up", folders, files)
	}
	if warns := env.Logger.Entries("WARN"); len(warns) != 3 {
		t.Errorf("warnings = %d, want one per failed delete", len(warns))
	}
}

func TestFolderTree_DeletePermissions(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t, testutil.NewTestBackend())
	f := mustCreate(t, env, owner1, "Docs", nil)

	_, err := env.Folders.Delete(ctx, owner2, f.ID, false)
	wantKind(t, err, vfs.ErrAccessDenied)

	result, err := env.Folders.Delete(ctx, admin, f.ID, false)
	if err != nil {
		t.Fatalf("Delete() as admin error = %v", err)
	}
	if len(result.DeletedFolderIDs) != 1 || result.PhysicalDeleteAttempts != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestFolderTree_ListChildren(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t, testutil.NewTestBackend())

	b := mustCreate(t, env, owner1, "b", nil)
	mustCreate(t, env, owner1, "a", nil)
	mustCreate(t, env, owner2, "theirs", nil)
	mustCreate(t, env, owner1, "y", &b.ID)
	mustCreate(t, env, owner1, "x", &b.ID)

	names := func(folders []*vfs.Folder) string {
		var out []string
		for _, f := range folders {
			out = append(out, f.Name)
		}
		return strings.Join(out, ",")
	}

	roots, err := env.Folders.ListChildren(ctx, owner1, nil)
	if err != nil {
		t.Fatalf("ListChildren(nil) error = %v", err)
	}
	if got := names(roots); got != "a,b" {
		t.Errorf("ListChildren(nil) = %s, want a,b", got)
	}

	children, err := env.Folders.ListChildren(ctx, owner1, &b.ID)
	if err != nil {
		t.Fatalf("ListChildren(b) error = %v", err)
	}
	if got := names(children); got != "x,y" {
		t.Errorf("ListChildren(b) = %s, want x,y", got)
	}

	_, err = env.Folders.ListChildren(ctx, owner2, &b.ID)
	wantKind(t, err, vfs.ErrAccessDenied)

	asAdmin, err := env.Folders.ListChildren(ctx, admin, &b.ID)
	if err != nil {
		t.Fatalf("ListChildren() as admin error = %v", err)
	}
	if got := names(asAdmin); got != "x,y" {
		t.Errorf("ListChildren() as admin = %s", got)
	}
}

func TestFolderTree_Tree(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t, testutil.NewTestBackend())

	docs := mustCreate(t, env, owner1, "Docs", nil)
	mustCreate(t, env, owner1, "Archive", nil)
	y2024 := mustCreate(t, env, owner1, "2024", &docs.ID)
	mustCreate(t, env, owner1, "Q1", &y2024.ID)
	mustCreate(t, env, owner2, "Theirs", nil)

	tree, err := env.Folders.Tree(ctx, owner1, 1)
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	if len(tree) != 2 || tree[0].Name != "Archive" || tree[1].Name != "Docs" {
		t.Fatalf("roots = %+v", tree)
	}
	docsNode := tree[1]
	if len(docsNode.Children) != 1 || docsNode.Children[0].Name != "2024" {
		t.Fatalf("Docs children = %+v", docsNode.Children)
	}
	q1 := docsNode.Children[0].Children[0]
	if q1.Name != "Q1" || q1.Path != "user_1/docs/2024/q1" || *q1.ParentID != y2024.ID {
		t.Errorf("Q1 node = %+v", q1)
	}

	data, err := json.Marshal(tree[0])
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"id":`, `"name":"Archive"`, `"path":"user_1/archive"`, `"parentId":null`, `"children":[]`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON %s missing %s", data, want)
		}
	}

	_, err = env.Folders.Tree(ctx, owner2, 1)
	wantKind(t, err, vfs.ErrAccessDenied)

	theirs, err := env.Folders.Tree(ctx, editor, 2)
	if err != nil {
		t.Fatalf("Tree() as editor error = %v", err)
	}
	if len(theirs) != 1 || theirs[0].Name != "Theirs" {
		t.Errorf("Tree(2) = %+v", theirs)
	}
}

func TestFolderTree_Get(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewTestEnv(t, testutil.NewTestBackend())
	f := mustCreate(t, env, owner1, "Docs", nil)

	got, err := env.Folders.Get(ctx, owner1, f.ID)
	if err != nil || got.ID != f.ID {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	_, err = env.Folders.Get(ctx, owner2, f.ID)
	wantKind(t, err, vfs.ErrAccessDenied)
	_, err = env.Folders.Get(ctx, owner1, 999)
	wantKind(t, err, vfs.ErrNotFound)
}
