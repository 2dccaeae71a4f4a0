package downloader

import (
	"fmt"
	"io"

	"mitenedl/pkg/album"
	"mitenedl/pkg/logger"
	"mitenedl/pkg/ui"
)

// MediaSource opens a byte stream for one item's media
type MediaSource interface {
	OpenDownload(item album.Item) (io.ReadCloser, error)
}

// MediaStore commits destination files durably
type MediaStore interface {
	Exists(name string) bool
	Save(r io.Reader, name string) error
	SaveText(text string, name string) error
}

// Fetcher realizes one album item as destination files, idempotently:
// an item whose media file already exists is skipped without touching
// the network.
type Fetcher struct {
	source  MediaSource
	store   MediaStore
	verbose bool
	logger  logger.Logger
}

// NewFetcher creates a fetcher downloading from source into store
func NewFetcher(source MediaSource, store MediaStore, verbose bool, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		source:  source,
		store:   store,
		verbose: verbose,
		logger:  log,
	}
}

// FetchItem downloads one item's media and, when present, its comment
// thread. Returns skipped=true when the media file already existed.
//
// Only the media path is consulted for the skip decision; an existing
// media file whose comment write failed on an earlier run is treated as
// complete and its comments are not retried.
func (f *Fetcher) FetchItem(item album.Item) (skipped bool, err error) {
	name, err := item.Filename()
	if err != nil {
		return false, err
	}

	if f.store.Exists(name) {
		ui.PrintVerbose(f.verbose, "%s already downloaded", item.UUID)
		f.logger.DebugWithFields("item already downloaded", map[string]interface{}{
			"uuid": item.UUID,
			"file": name,
		})
		return true, nil
	}

	ui.PrintVerbose(f.verbose, "downloading %s", item.UUID)

	body, err := f.source.OpenDownload(item)
	if err != nil {
		return false, err
	}
	defer body.Close()

	if err := f.store.Save(body, name); err != nil {
		return false, fmt.Errorf("saving %s: %w", item.UUID, err)
	}

	if text := item.RenderComments(); text != "" {
		commentName := album.CommentFilename(name)
		if err := f.store.SaveText(text, commentName); err != nil {
			return false, fmt.Errorf("saving comments for %s: %w", item.UUID, err)
		}
	}

	f.logger.DebugWithFields("item downloaded", map[string]interface{}{
		"uuid": item.UUID,
		"file": name,
	})

	return false, nil
}
