package vfs_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"vfs-go/internal/testutil"
	"vfs-go/internal/vfs"
)

var (
	owner1 = vfs.Caller{UserID: 1, Role: vfs.RoleUser}
	owner2 = vfs.Caller{UserID: 2, Role: vfs.RoleUser}
	editor = vfs.Caller{UserID: 3, Role: vfs.RoleEditor}
	admin  = vfs.Caller{UserID: 4, Role: vfs.RoleAdmin}
)

// backendCases runs the same test against an object store and a directory backend.
var backendCases = []struct {
	name string
	new  func(t *testing.T) vfs.StorageBackend
}{
	{name: "memory", new: func(t *testing.T) vfs.StorageBackend { return testutil.NewTestBackend() }},
	{name: "filesystem", new: func(t *testing.T) vfs.StorageBackend { return testutil.NewTestFilesystemBackend(t) }},
}

func forEachBackend(t *testing.T, fn func(t *testing.T, env *testutil.Env)) {
	t.Helper()
	for _, bc := range backendCases {
		t.Run(bc.name, func(t *testing.T) {
			fn(t, testutil.NewTestEnv(t, bc.new(t)))
		})
	}
}

func isDirectoryBackend(b vfs.StorageBackend) bool {
	_, ok := b.(vfs.DirectoryBackend)
	return ok
}

func mustCreate(t *testing.T, env *testutil.Env, caller vfs.Caller, name string, parent *int64) *vfs.Folder {
	t.Helper()
	f, err := env.Folders.Create(context.Background(), caller, name, parent)
	if err != nil {
		t.Fatalf("Create(%q) error = %v", name, err)
	}
	return f
}

func mustUpload(t *testing.T, env *testutil.Env, caller vfs.Caller, name string, data []byte, folder *int64) *vfs.File {
	t.Helper()
	f, err := env.Files.Upload(context.Background(), caller, vfs.UploadRequest{
		Reader:       bytes.NewReader(data),
		Size:         int64(len(data)),
		OriginalName: name,
		MIMEType:     "application/pdf",
		FolderID:     folder,
	})
	if err != nil {
		t.Fatalf("Upload(%q) error = %v", name, err)
	}
	return f
}

func wantKind(t *testing.T, err error, want error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}
}

func counts(t *testing.T, env *testutil.Env) (folders, files int64) {
	t.Helper()
	ctx := context.Background()
	folders, err := env.DB.CountFolders(ctx)
	if err != nil {
		t.Fatalf("CountFolders() error = %v", err)
	}
	files, err = env.DB.CountFiles(ctx)
	if err != nil {
		t.Fatalf("CountFiles() error = %v", err)
	}
	return folders, files
}
