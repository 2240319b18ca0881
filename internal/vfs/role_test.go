package vfs

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "admin", want: RoleAdmin},
		{in: " Editor ", want: RoleEditor},
		{in: "USER", want: RoleUser},
		{in: "root", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("ParseRole(%q) error = %v, want Validation", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRole(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got.String() != tt.want.String() {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}

func TestPolicyFor(t *testing.T) {
	user, editor, admin := PolicyFor(RoleUser), PolicyFor(RoleEditor), PolicyFor(RoleAdmin)

	if user.MaxUploadBytes != 10*mib || editor.MaxUploadBytes != 50*mib || admin.MaxUploadBytes != 100*mib {
		t.Errorf("MaxUploadBytes = %d, %d, %d", user.MaxUploadBytes, editor.MaxUploadBytes, admin.MaxUploadBytes)
	}
	if user.CanDeleteOthers || user.CanViewAllFiles {
		t.Error("user policy grants access to other owners")
	}
	if !editor.CanDeleteOthers || !editor.CanViewAllFiles || !admin.CanDeleteOthers {
		t.Error("editor/admin policy missing permissions")
	}

	unknown := PolicyFor(Role(99))
	if unknown.CanCreateFolders || unknown.MaxUploadBytes != 0 || unknown.AllowsMIMEType("image/png") {
		t.Errorf("unknown role policy = %+v, want nothing allowed", unknown)
	}
}

func TestPolicy_AllowsMIMEType(t *testing.T) {
	tests := []struct {
		role Role
		mime string
		want bool
	}{
		{RoleUser, "image/png", true},
		{RoleUser, "IMAGE/JPEG", true},
		{RoleUser, "application/pdf", true},
		{RoleUser, "text/plain; charset=utf-8", true},
		{RoleUser, "application/zip", false},
		{RoleUser, "video/mp4", false},
		{RoleUser, "", false},
		{RoleEditor, "video/mp4", true},
		{RoleEditor, "application/zip", true},
		{RoleEditor, "application/x-msdownload", false},
		{RoleAdmin, "application/x-msdownload", true},
		{RoleAdmin, "garbage", false},
	}

	for _, tt := range tests {
		t.Run(tt.role.String()+" "+tt.mime, func(t *testing.T) {
			if got := PolicyFor(tt.role).AllowsMIMEType(tt.mime); got != tt.want {
				t.Errorf("AllowsMIMEType(%q) = %v, want %v", tt.mime, got, tt.want)
			}
		})
	}
}

func TestCaller_Permissions(t *testing.T) {
	tests := []struct {
		name       string
		caller     Caller
		owner      int64
		wantManage bool
		wantView   bool
	}{
		{name: "owner", caller: Caller{UserID: 1, Role: RoleUser}, owner: 1, wantManage: true, wantView: true},
		{name: "other user", caller: Caller{UserID: 2, Role: RoleUser}, owner: 1},
		{name: "editor", caller: Caller{UserID: 2, Role: RoleEditor}, owner: 1, wantManage: true, wantView: true},
		{name: "admin", caller: Caller{UserID: 2, Role: RoleAdmin}, owner: 1, wantManage: true, wantView: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.caller.canManage(tt.owner); got != tt.wantManage {
				t.Errorf("canManage() = %v, want %v", got, tt.wantManage)
			}
			if got := tt.caller.canView(tt.owner); got != tt.wantView {
				t.Errorf("canView() = %v, want %v", got, tt.wantView)
			}
		})
	}
}
