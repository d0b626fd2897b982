package catalog

import (
	"context"
	"fmt"

	"reolink-sync/hass"
)

// RootContentID is the top of the Reolink media catalog: its children are
// the cameras.
const RootContentID = "media-source://reolink"

// Node is one child entry of a catalog level.
type Node struct {
	Title       string
	ContentID   string
	ContentType string
	CanPlay     bool
}

// Browser fetches one level of the hierarchical media catalog. An empty
// slice is a valid result; errors are reserved for transport failures and
// malformed responses.
type Browser interface {
	Browse(ctx context.Context, contentID string) ([]Node, error)
}

// CatalogError signals a browse response that was missing the expected shape.
type CatalogError struct {
	ContentID string
	Reason    string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog: browsing %s: %s", e.ContentID, e.Reason)
}

// HassBrowser walks the catalog through Home Assistant's browse_media
// service, one authenticated exchange per call. Call volume is low (a
// handful of levels per camera per cycle) so connections are not reused.
type HassBrowser struct {
	client   *hass.Client
	entityID string
}

// NewHassBrowser creates a Browser backed by the given client and browse
// entity.
func NewHassBrowser(client *hass.Client, entityID string) *HassBrowser {
	return &HassBrowser{client: client, entityID: entityID}
}

// Browse fetches the children of one catalog node.
func (b *HassBrowser) Browse(ctx context.Context, contentID string) ([]Node, error) {
	contentType := "playlist"
	if contentID == RootContentID {
		contentType = "app"
	}

	result, err := b.client.BrowseMedia(ctx, b.entityID, contentID, contentType)
	if err != nil {
		return nil, err
	}
	if result.Children == nil {
		return nil, &CatalogError{ContentID: contentID, Reason: "response has no children field"}
	}

	nodes := make([]Node, 0, len(result.Children))
	for _, child := range result.Children {
		nodes = append(nodes, Node{
			Title:       child.Title,
			ContentID:   child.MediaContentID,
			ContentType: child.MediaContentType,
			CanPlay:     child.CanPlay,
		})
	}
	return nodes, nil
}
