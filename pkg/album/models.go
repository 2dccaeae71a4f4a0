package album

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"runtime"
	"sort"
	"strings"
)

// listingPayload mirrors the JSON block the album page embeds for the
// current page of media.
type listingPayload struct {
	MediaFiles []Item `json:"mediaFiles"`
}

// Item is one media unit (photo or video) in the album
type Item struct {
	UUID             string    `json:"uuid"`
	TookAt           string    `json:"tookAt"`
	ContentType      string    `json:"contentType"`
	ExpiringURL      string    `json:"expiringUrl"`
	ExpiringVideoURL string    `json:"expiringVideoUrl"`
	Comments         []Comment `json:"comments"`
}

// Comment belongs to exactly one Item
type Comment struct {
	User      CommentUser `json:"user"`
	Body      string      `json:"body"`
	IsDeleted bool        `json:"isDeleted"`
}

// CommentUser identifies a comment author
type CommentUser struct {
	Nickname string `json:"nickname"`
}

// Page is one ordered batch of items. An empty batch signals the end of
// pagination.
type Page struct {
	Number int
	Items  []Item
}

// HasItems reports whether the page carried any items
func (p Page) HasItems() bool {
	return len(p.Items) > 0
}

// SourceURL returns the URL the item's original filename derives from.
// Videos expose a dedicated URL; photos use the generic expiring URL.
func (i Item) SourceURL() string {
	if i.ExpiringVideoURL != "" {
		return i.ExpiringVideoURL
	}
	return i.ExpiringURL
}

// Filename derives the deterministic destination filename for the item:
// capture timestamp plus the original filename, with an extension
// inferred from the content type when the original name lacks one.
func (i Item) Filename() (string, error) {
	u, err := url.Parse(i.SourceURL())
	if err != nil {
		return "", fmt.Errorf("invalid media URL for %s: %w", i.UUID, err)
	}

	name := i.TookAt + "-" + path.Base(u.Path)

	// Colons are not allowed in Windows filenames
	if runtime.GOOS == "windows" {
		name = strings.ReplaceAll(name, ":", "")
	}

	if path.Ext(name) == "" {
		name += extensionForContentType(i.ContentType)
	}

	return name, nil
}

// CommentFilename returns the sibling comment file name for a media
// filename: same base, .md extension.
func CommentFilename(mediaName string) string {
	return strings.TrimSuffix(mediaName, path.Ext(mediaName)) + ".md"
}

// RenderComments renders the item's non-deleted comments as ordered
// "**author**: body" blocks separated by blank lines. Returns the empty
// string when nothing remains after filtering.
func (i Item) RenderComments() string {
	var b strings.Builder
	for _, comment := range i.Comments {
		if comment.IsDeleted {
			continue
		}
		fmt.Fprintf(&b, "**%s**: %s\n\n", comment.User.Nickname, comment.Body)
	}
	return b.String()
}

// extensionForContentType maps a media content type to a filename
// extension. Common album media types are pinned so the result does not
// depend on the host's mime tables.
func extensionForContentType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/heic":
		return ".heic"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	}

	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	sort.Strings(exts)
	return exts[0]
}
