package vfs

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// UsageKind tells how a piece of content refers to a file.
type UsageKind string

const (
	UsageExplicitLink    UsageKind = "explicit-link"
	UsageInlineReference UsageKind = "inline-reference"
)

// Usage is one piece of content that refers to a file.
type Usage struct {
	ContentID int64     `json:"contentId"`
	Title     string    `json:"title"`
	Kind      UsageKind `json:"kind"`
}

// fileIDRef matches internal-id file URLs in content bodies. The id is
// digit-bounded so /files/1 does not match /files/12.
var fileIDRef = regexp.MustCompile(`/files/(\d+)`)

// ReferenceGuard finds the content that uses a file. The explicit link
// table is the primary source; bodies are also scanned for the file's
// internal-id URL, its virtual id and its storage filename, which catches
// links embedded in content that were never recorded as explicit links.
type ReferenceGuard struct {
	db      Database
	content ContentStore
	logger  Logger
}

func NewReferenceGuard(db Database, content ContentStore, logger Logger) *ReferenceGuard {
	return &ReferenceGuard{db: db, content: content, logger: logger}
}

// FindUsages returns the usages of one file ordered by content id, then kind.
func (g *ReferenceGuard) FindUsages(ctx context.Context, fileID int64) ([]Usage, error) {
	file, err := g.db.FindFileByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("finding file %d: %w", fileID, err)
	}
	if file == nil {
		return nil, NewError(KindNotFound, "file %d not found", fileID)
	}
	usages, err := g.usagesOf(ctx, []*File{file})
	if err != nil {
		return nil, err
	}
	return usages[fileID], nil
}

// FindUsagesBatch returns the usages of each known file in fileIDs with a
// single pass over the content. Unknown ids are omitted.
func (g *ReferenceGuard) FindUsagesBatch(ctx context.Context, fileIDs []int64) (map[int64][]Usage, error) {
	files, err := g.db.FindFilesByIDs(ctx, fileIDs)
	if err != nil {
		return nil, fmt.Errorf("finding files: %w", err)
	}
	return g.usagesOf(ctx, files)
}

type usageKey struct {
	contentID int64
	kind      UsageKind
}

func (g *ReferenceGuard) usagesOf(ctx context.Context, files []*File) (map[int64][]Usage, error) {
	result := make(map[int64][]Usage, len(files))
	if len(files) == 0 {
		return result, nil
	}

	found := make(map[int64]map[usageKey]Usage, len(files))
	ids := make([]int64, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
		found[f.ID] = make(map[usageKey]Usage)
	}
	add := func(fileID int64, u Usage) {
		if seen, ok := found[fileID]; ok {
			seen[usageKey{u.ContentID, u.Kind}] = u
		}
	}

	links, err := g.content.ListExplicitLinks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("listing explicit links: %w", err)
	}
	for _, l := range links {
		add(l.FileID, Usage{ContentID: l.ContentID, Title: l.ContentTitle, Kind: UsageExplicitLink})
	}

	items, err := g.content.ListContentWithBody(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing content: %w", err)
	}
	for _, item := range items {
		referenced := make(map[int64]bool)
		for _, m := range fileIDRef.FindAllStringSubmatch(item.Body, -1) {
			if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				referenced[id] = true
			}
		}
		for _, f := range files {
			if referenced[f.ID] || bodyMentions(item.Body, f) {
				add(f.ID, Usage{ContentID: item.ID, Title: item.Title, Kind: UsageInlineReference})
			}
		}
	}

	for fileID, seen := range found {
		usages := make([]Usage, 0, len(seen))
		for _, u := range seen {
			usages = append(usages, u)
		}
		sort.Slice(usages, func(i, j int) bool {
			if usages[i].ContentID != usages[j].ContentID {
				return usages[i].ContentID < usages[j].ContentID
			}
			return usages[i].Kind < usages[j].Kind
		})
		result[fileID] = usages
	}

	g.logger.Debug("file usages scanned", "files", len(files), "content", len(items), "links", len(links))
	return result, nil
}

// bodyMentions reports whether body contains the virtual id or storage
// filename of f. The virtual id also covers /files/virtual/{id} URLs.
func bodyMentions(body string, f *File) bool {
	if f.VirtualID.Valid && f.VirtualID.String != "" && strings.Contains(body, f.VirtualID.String) {
		return true
	}
	return f.StorageFilename != "" && containsWord(body, f.StorageFilename)
}

// containsWord reports whether word occurs in body with no letter, digit or
// '_' directly before or after it, so name_1 does not match name.
func containsWord(body, word string) bool {
	for offset := 0; ; {
		i := strings.Index(body[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		if (start == 0 || !isWordByte(body[start-1])) && (end == len(body) || !isWordByte(body[end])) {
			return true
		}
		offset = start + 1
	}
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func describeUsages(usages []Usage) []string {
	out := make([]string, len(usages))
	for i, u := range usages {
		out[i] = fmt.Sprintf("%d:%s (%s)", u.ContentID, u.Title, u.Kind)
	}
	return out
}
