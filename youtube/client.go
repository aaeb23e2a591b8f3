// Package youtube provides the query interface to the video platform:
// channel search, channel lookup, and latest-upload checks.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Sentinel errors for platform queries.
var (
	// ErrAPIKeyMissing indicates no API credential is configured.
	ErrAPIKeyMissing = errors.New("youtube: api key missing")
	// ErrChannelNotFound indicates the channel id does not resolve.
	ErrChannelNotFound = errors.New("youtube: channel not found")
	// ErrSearchUnsupported indicates the configured source cannot search.
	ErrSearchUnsupported = errors.New("youtube: search not supported by this source")
)

// TransportError reports a failed call against the platform API: a non-2xx
// response or a network-level failure. Callers distinguish it from "no data",
// which is reported as a nil result without error.
type TransportError struct {
	// StatusCode is the HTTP status, 0 for network-level failures.
	StatusCode int
	// Message describes the failure.
	Message string
	// Err is the underlying error, if any.
	Err error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("youtube: transport error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("youtube: transport error: %s", e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ChannelSummary is one free-text search hit.
type ChannelSummary struct {
	ID          string
	Title       string
	Description string
}

// ChannelInfo is display metadata resolved from a channel id.
type ChannelInfo struct {
	ID           string
	Title        string
	ThumbnailURL string
}

// Upload is a single published video. Produced fresh on every query and
// never cached; only the video id is persisted, as the dedup watermark.
type Upload struct {
	VideoID      string
	Title        string
	ChannelTitle string
	Published    time.Time
	URL          string
	ThumbnailURL string
}

// Source is the query surface consumed by the poller and the command front.
type Source interface {
	// Search finds channels by free text. An empty result is not an error.
	Search(ctx context.Context, query string) ([]ChannelSummary, error)
	// Lookup resolves display metadata for a channel id.
	// Returns ErrChannelNotFound for an id with no resolvable channel.
	Lookup(ctx context.Context, channelID string) (*ChannelInfo, error)
	// LatestUpload returns the most recent upload for a channel, or
	// (nil, nil) when the channel has no uploads yet.
	LatestUpload(ctx context.Context, channelID string) (*Upload, error)
}

// WatchURL returns the canonical watch page URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// Client implements Source using YouTube Data API v3. A token-bucket
// limiter caps the request rate against the API.
type Client struct {
	svc     *youtube.Service
	limiter *rate.Limiter
}

// defaultAPIRate is a conservative cap well under the Data API quota.
const defaultAPIRate = 2.0

// NewClient creates a Data API-backed source. Returns ErrAPIKeyMissing when
// apiKey is empty.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &Client{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(defaultAPIRate), 1),
	}, nil
}

// Search finds channels matching the free-text query, at most five hits.
func (c *Client) Search(ctx context.Context, query string) ([]ChannelSummary, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, asTransportError(err)
	}

	resp, err := c.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("channel").
		MaxResults(5).
		Context(ctx).
		Do()
	if err != nil {
		return nil, asTransportError(err)
	}

	results := make([]ChannelSummary, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Snippet == nil {
			continue
		}
		results = append(results, ChannelSummary{
			ID:          item.Id.ChannelId,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
		})
	}
	return results, nil
}

// Lookup resolves display metadata for a channel id.
func (c *Client) Lookup(ctx context.Context, channelID string) (*ChannelInfo, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, asTransportError(err)
	}

	resp, err := c.svc.Channels.List([]string{"snippet"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, asTransportError(err)
	}
	if len(resp.Items) == 0 {
		return nil, ErrChannelNotFound
	}

	info := &ChannelInfo{ID: channelID}
	if sn := resp.Items[0].Snippet; sn != nil {
		info.Title = sn.Title
		if sn.Thumbnails != nil && sn.Thumbnails.Default != nil {
			info.ThumbnailURL = sn.Thumbnails.Default.Url
		}
	}
	return info, nil
}

// LatestUpload returns the channel's most recent upload by publish time,
// or (nil, nil) when the channel has no uploads.
func (c *Client) LatestUpload(ctx context.Context, channelID string) (*Upload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, asTransportError(err)
	}

	resp, err := c.svc.Search.List([]string{"snippet"}).
		ChannelId(channelID).
		Order("date").
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, asTransportError(err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	if item.Id == nil || item.Id.VideoId == "" {
		return nil, nil
	}

	up := &Upload{
		VideoID: item.Id.VideoId,
		URL:     WatchURL(item.Id.VideoId),
	}
	if sn := item.Snippet; sn != nil {
		up.Title = sn.Title
		up.ChannelTitle = sn.ChannelTitle
		up.Published = parsePublishTime(sn)
		if sn.Thumbnails != nil {
			if sn.Thumbnails.High != nil {
				up.ThumbnailURL = sn.Thumbnails.High.Url
			} else if sn.Thumbnails.Default != nil {
				up.ThumbnailURL = sn.Thumbnails.Default.Url
			}
		}
	}
	return up, nil
}

// parsePublishTime parses the search snippet's publishedAt (RFC 3339).
// The generated Go client does not expose the REST API's publishTime
// field on SearchResultSnippet; the Data API documents the two as equal
// for search results.
func parsePublishTime(sn *youtube.SearchResultSnippet) time.Time {
	for _, raw := range []string{sn.PublishedAt} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// asTransportError maps API client failures onto TransportError, keeping
// the HTTP status when the platform returned one.
func asTransportError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &TransportError{StatusCode: gerr.Code, Message: gerr.Message, Err: err}
	}
	return &TransportError{Message: err.Error(), Err: err}
}
