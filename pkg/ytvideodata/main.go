// Package ytvideodata fetches title and author of a video, first through the
// oEmbed endpoint and, for videos that refuse embedding, from the watch page.
package ytvideodata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	DefaultOEmbedURL    = "https://www.youtube.com/oembed"
	DefaultPageURL      = "https://youtu.be/"
	DefaultThumbnailURL = "https://i.ytimg.com/vi/%s/hqdefault.jpg"
)

type VideoData struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

type Client struct {
	httpClient   *http.Client
	oembedURL    string
	pageURL      string
	thumbnailURL string
}

type Option func(*Client)

// WithBaseURLs points the client at other oEmbed and page endpoints.
func WithBaseURLs(oembedURL, pageURL string) Option {
	return func(c *Client) {
		c.oembedURL = oembedURL
		c.pageURL = pageURL
	}
}

func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	c := &Client{
		httpClient:   httpClient,
		oembedURL:    DefaultOEmbedURL,
		pageURL:      DefaultPageURL,
		thumbnailURL: DefaultThumbnailURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

var defaultClient = NewClient(nil)

func Get(ctx context.Context, videoId string) (*VideoData, error) {
	return defaultClient.Get(ctx, videoId)
}

func (c *Client) Get(ctx context.Context, videoId string) (*VideoData, error) {
	videoData, err := c.getVideoWithEmbed(ctx, videoId)
	if err != nil {
		if !errors.Is(err, ErrVideoNotEmbeddable) {
			return nil, fmt.Errorf("failed to get video data with embed: %w", err)
		}

		videoData, err = c.getFromPage(ctx, videoId)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	return videoData, nil
}
