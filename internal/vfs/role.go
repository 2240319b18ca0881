package vfs

import (
	"fmt"
	"strings"
)

// Role is the caller's role as resolved by the authentication layer.
type Role int

const (
	RoleUser Role = iota
	RoleEditor
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleEditor:
		return "editor"
	case RoleUser:
		return "user"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole converts a role name into a Role. Unknown names are rejected.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "editor":
		return RoleEditor, nil
	case "user":
		return RoleUser, nil
	default:
		return 0, NewError(KindValidation, "unknown role %q", s)
	}
}

// Caller identifies who is invoking a core operation.
type Caller struct {
	UserID int64
	Role   Role
}

const mib = 1 << 20

var (
	imageTypes = []string{"image/*"}
	docTypes   = []string{
		"application/pdf",
		"text/*",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.oasis.opendocument.text",
		"application/vnd.oasis.opendocument.spreadsheet",
	}
	archiveTypes = []string{
		"application/zip",
		"application/x-7z-compressed",
		"application/x-rar-compressed",
		"application/gzip",
		"application/x-tar",
	}
	mediaTypes = []string{"audio/*", "video/*"}
)

// Policy holds the upload limits and permissions granted to a role.
type Policy struct {
	MaxUploadBytes   int64
	AllowedMIMETypes []string
	CanCreateFolders bool
	CanDeleteOthers  bool
	CanViewAllFiles  bool
}

// PolicyFor returns the policy for a role. Unknown roles get nothing.
func PolicyFor(r Role) Policy {
	switch r {
	case RoleAdmin:
		return Policy{
			MaxUploadBytes:   100 * mib,
			AllowedMIMETypes: []string{"*/*"},
			CanCreateFolders: true,
			CanDeleteOthers:  true,
			CanViewAllFiles:  true,
		}
	case RoleEditor:
		return Policy{
			MaxUploadBytes:   50 * mib,
			AllowedMIMETypes: concat(imageTypes, docTypes, archiveTypes, mediaTypes),
			CanCreateFolders: true,
			CanDeleteOthers:  true,
			CanViewAllFiles:  true,
		}
	case RoleUser:
		return Policy{
			MaxUploadBytes:   10 * mib,
			AllowedMIMETypes: concat(imageTypes, docTypes),
			CanCreateFolders: true,
		}
	default:
		return Policy{}
	}
}

// AllowsMIMEType reports whether mimeType matches one of the allowed entries.
// An entry is an exact type, a "type/*" wildcard, or "*/*".
func (p Policy) AllowsMIMEType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	major, _, ok := strings.Cut(mimeType, "/")
	if !ok || major == "" {
		return false
	}
	for _, allowed := range p.AllowedMIMETypes {
		switch {
		case allowed == "*/*":
			return true
		case strings.HasSuffix(allowed, "/*"):
			if strings.TrimSuffix(allowed, "/*") == major {
				return true
			}
		case allowed == mimeType:
			return true
		}
	}
	return false
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// canManage reports whether the caller may modify an item owned by ownerID.
func (c Caller) canManage(ownerID int64) bool {
	return c.UserID == ownerID || PolicyFor(c.Role).CanDeleteOthers
}

// canView reports whether the caller may read an item owned by ownerID.
func (c Caller) canView(ownerID int64) bool {
	return c.UserID == ownerID || PolicyFor(c.Role).CanViewAllFiles
}
