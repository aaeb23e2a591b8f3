package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	rssFeedURLTemplate = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"
	rssTimeout         = 30 * time.Second
)

// RSSClient implements Source using YouTube's public Atom feeds. Feeds need
// no API credential but carry only recent uploads and cannot search, so
// Search reports ErrSearchUnsupported.
type RSSClient struct {
	client *http.Client
}

// NewRSSClient creates a feed-backed source.
func NewRSSClient() *RSSClient {
	return &RSSClient{
		client: &http.Client{Timeout: rssTimeout},
	}
}

// NewRSSClientWithHTTP creates a feed-backed source with a custom HTTP client.
func NewRSSClientWithHTTP(client *http.Client) *RSSClient {
	return &RSSClient{client: client}
}

// Search is unsupported for feed-backed sources.
func (r *RSSClient) Search(ctx context.Context, query string) ([]ChannelSummary, error) {
	return nil, ErrSearchUnsupported
}

// Lookup resolves channel display metadata from the feed title.
func (r *RSSClient) Lookup(ctx context.Context, channelID string) (*ChannelInfo, error) {
	feed, err := r.fetchFeed(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return &ChannelInfo{ID: channelID, Title: feed.Title}, nil
}

// LatestUpload returns the most recent entry of the channel feed, or
// (nil, nil) for an empty feed.
func (r *RSSClient) LatestUpload(ctx context.Context, channelID string) (*Upload, error) {
	feed, err := r.fetchFeed(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if len(feed.Entries) == 0 {
		return nil, nil
	}

	// Feed entries are newest first, but be defensive about ordering.
	latest := feed.Entries[0]
	for _, e := range feed.Entries[1:] {
		if e.Published.After(latest.Published) {
			latest = e
		}
	}

	return &Upload{
		VideoID:      latest.VideoID,
		Title:        latest.Title,
		ChannelTitle: feed.Title,
		Published:    latest.Published,
		URL:          WatchURL(latest.VideoID),
		ThumbnailURL: latest.Thumbnail.URL,
	}, nil
}

func (r *RSSClient) fetchFeed(ctx context.Context, channelID string) (*atomFeed, error) {
	feedURL := fmt.Sprintf(rssFeedURLTemplate, channelID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &TransportError{Message: err.Error(), Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &TransportError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrChannelNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Message: err.Error(), Err: err}
	}

	return parseAtomFeed(body)
}

// atomFeed models the subset of YouTube's Atom feed the bot needs.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	VideoID   string        `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	ChannelID string        `xml:"http://www.youtube.com/xml/schemas/2015 channelId"`
	Title     string        `xml:"title"`
	Published time.Time     `xml:"published"`
	Thumbnail atomThumbnail `xml:"group>thumbnail"`
}

type atomThumbnail struct {
	URL string `xml:"url,attr"`
}

// parseAtomFeed parses YouTube's Atom XML feed.
func parseAtomFeed(data []byte) (*atomFeed, error) {
	var feed atomFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return &feed, nil
}
