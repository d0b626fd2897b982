package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// downloadChunkSize is the buffer size used when streaming recording bytes
// to disk.
const downloadChunkSize = 4 * 1024 * 1024 // 4 MiB

// Client handles authenticated interactions with a Home Assistant host. It
// owns the message-id counter shared by all WebSocket channels it opens, so
// correlation ids stay strictly increasing for the lifetime of the client
// rather than resetting per channel.
type Client struct {
	host       string
	token      string
	httpClient *http.Client
	timeout    time.Duration
	msgID      atomic.Int64
}

// NewClient creates a client for the given host using a pre-minted long-lived
// access token.
func NewClient(host, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		host:       host,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// Host returns the configured host base URL.
func (c *Client) Host() string { return c.host }

// nextMsgID returns the next strictly increasing correlation id, starting at 1.
func (c *Client) nextMsgID() int64 {
	return c.msgID.Add(1)
}

// Request performs an authenticated HTTP request against the host. The caller
// owns the response body.
func (c *Client) Request(ctx context.Context, method, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.host+path, body)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	return resp, nil
}

// BrowseResult is one node of the hierarchical media catalog as returned by
// the browse_media service.
type BrowseResult struct {
	Title            string         `json:"title"`
	MediaContentID   string         `json:"media_content_id"`
	MediaContentType string         `json:"media_content_type"`
	CanPlay          bool           `json:"can_play"`
	Children         []BrowseResult `json:"children"`
}

// browseEnvelope is the service-call response wrapper keyed by entity id.
type browseEnvelope struct {
	ServiceResponse map[string]BrowseResult `json:"service_response"`
}

// BrowseMedia fetches one level of the media catalog via the
// media_player.browse_media service.
func (c *Client) BrowseMedia(ctx context.Context, entityID, contentID, contentType string) (*BrowseResult, error) {
	payload, err := json.Marshal(map[string]string{
		"entity_id":          entityID,
		"media_content_id":   contentID,
		"media_content_type": contentType,
	})
	if err != nil {
		return nil, &TransportError{Op: "browse_media", Err: err}
	}

	resp, err := c.Request(ctx, http.MethodPost,
		"/api/services/media_player/browse_media?return_response=true",
		bytes.NewReader(payload), map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: "browse_media", Status: resp.StatusCode}
	}

	var envelope browseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &TransportError{Op: "browse_media decode", Err: err}
	}
	result, ok := envelope.ServiceResponse[entityID]
	if !ok {
		return nil, &TransportError{Op: "browse_media", Err: fmt.Errorf("no service response for entity %s", entityID)}
	}
	return &result, nil
}

// ProxyURL returns the direct media proxy URL for a content identifier. The
// identifier is percent-encoded in full so path separators inside it survive
// routing.
func (c *Client) ProxyURL(contentID string) string {
	return c.host + "/api/media_source/proxy/" + url.PathEscape(contentID)
}

// ResolveMediaURL resolves a content identifier to a downloadable URL. The
// direct proxy URL is probed first; when the probe does not answer with
// success the stateful WebSocket resolve exchange is used instead.
func (c *Client) ResolveMediaURL(ctx context.Context, contentID string) (string, error) {
	proxyURL := c.ProxyURL(contentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxyURL, nil)
	if err == nil {
		req.Header.Set("Authorization", "Bearer "+c.token)
		if resp, probeErr := c.httpClient.Do(req); probeErr == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return proxyURL, nil
			}
			log.Printf("Media proxy probe returned status %d, falling back to socket resolve", resp.StatusCode)
		} else {
			log.Printf("Media proxy probe failed, falling back to socket resolve: %v", probeErr)
		}
	}

	ch, err := c.OpenChannel(ctx)
	if err != nil {
		return "", err
	}
	defer ch.Close()

	resolved, err := ch.ResolveMedia(ctx, contentID)
	if err != nil {
		return "", err
	}
	return c.host + resolved, nil
}

// Download streams the body at url into dest in fixed-size chunks. Any
// pre-existing file at dest is removed first so a failed transfer can never
// masquerade as the previous recording.
func (c *Client) Download(ctx context.Context, mediaURL, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %v", err)
	}
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to remove previous file %s: %v", dest, err)
		}
	}

	resp, err := c.Request(ctx, http.MethodGet, trimHost(mediaURL, c.host), nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{Op: "download", Status: resp.StatusCode}
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", dest, err)
	}
	defer out.Close()

	buf := make([]byte, downloadChunkSize)
	if _, err := io.CopyBuffer(out, resp.Body, buf); err != nil {
		return fmt.Errorf("failed to write %s: %v", dest, err)
	}
	return nil
}

// FetchMedia resolves a content identifier and downloads the clip to dest.
func (c *Client) FetchMedia(ctx context.Context, contentID, dest string) error {
	mediaURL, err := c.ResolveMediaURL(ctx, contentID)
	if err != nil {
		return err
	}
	return c.Download(ctx, mediaURL, dest)
}

// trimHost strips the client's host prefix so absolute URLs from the resolve
// exchange can be routed through Request.
func trimHost(mediaURL, host string) string {
	if len(mediaURL) > len(host) && mediaURL[:len(host)] == host {
		return mediaURL[len(host):]
	}
	return mediaURL
}
