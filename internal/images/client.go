// Package images fetches background photos from the Unsplash API.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"quotereel/internal/pkg/errors"
	"quotereel/internal/pkg/logger"
)

const defaultBaseURL = "https://api.unsplash.com"

// Photo is the subset of the provider's photo metadata the pipeline needs.
type Photo struct {
	ID          string `json:"id"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Description string `json:"description"`
	URLs        struct {
		Raw     string `json:"raw"`
		Full    string `json:"full"`
		Regular string `json:"regular"`
	} `json:"urls"`
	Links struct {
		DownloadLocation string `json:"download_location"`
	} `json:"links"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
}

// Client talks to the image provider. API guidelines require hitting the
// download-tracking endpoint whenever a photo is used in a render.
type Client struct {
	baseURL   string
	accessKey string
	httpc     *http.Client
	log       *logger.Logger
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (tests point it at a local server).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpc = h
		}
	}
}

func NewClient(accessKey string, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		accessKey: accessKey,
		httpc:     &http.Client{Timeout: 30 * time.Second},
		log:       log.WithComponent("images"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPhoto retrieves photo metadata by identifier.
func (c *Client) GetPhoto(ctx context.Context, id string) (*Photo, error) {
	resp, err := c.get(ctx, c.baseURL+"/photos/"+id)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, id); err != nil {
		return nil, err
	}

	var photo Photo
	if err := json.NewDecoder(resp.Body).Decode(&photo); err != nil {
		return nil, errors.UpstreamUnavailable("image provider", fmt.Errorf("decode photo: %w", err))
	}
	return &photo, nil
}

// TrackDownload performs the provider-mandated usage-tracking call.
// Callers treat a failure as non-fatal but must attempt the call.
func (c *Client) TrackDownload(ctx context.Context, photo *Photo) error {
	if photo.Links.DownloadLocation == "" {
		return nil
	}
	resp, err := c.get(ctx, photo.Links.DownloadLocation)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download tracking returned %d", resp.StatusCode)
	}
	return nil
}

// Download streams the rendering-resolution image to destPath. A short
// body surfaces as TRANSFER_FAILED so callers can tell it apart from a
// missing asset.
func (c *Client) Download(ctx context.Context, url, destPath string) (int64, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Newf(errors.CodeTransferFailed, "image download returned %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.CodeTransferFailed, "images.download", "create image file")
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(destPath)
		return 0, errors.WrapWithCode(err, errors.CodeTransferFailed, "images.download", "image transfer interrupted")
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		_ = os.Remove(destPath)
		return 0, errors.Newf(errors.CodeTransferFailed, "partial image download: %d of %d bytes", n, resp.ContentLength)
	}

	return n, nil
}

// DownloadPhoto fires the tracking call and downloads the rendering
// image to destPath. Tracking failures are logged, not fatal.
func (c *Client) DownloadPhoto(ctx context.Context, photo *Photo, destPath string) error {
	if err := c.TrackDownload(ctx, photo); err != nil {
		c.log.Warn("download tracking failed", "asset_id", photo.ID, "error", err.Error())
	}

	url := photo.URLs.Regular
	if url == "" {
		url = photo.URLs.Full
	}
	if url == "" {
		return errors.Newf(errors.CodeTransferFailed, "photo %s has no downloadable URL", photo.ID)
	}

	_, err := c.Download(ctx, url, destPath)
	return err
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.UpstreamUnavailable("image provider", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.UpstreamUnavailable("image provider", err)
	}
	return resp, nil
}

func (c *Client) checkStatus(resp *http.Response, assetID string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errors.AssetNotFound(assetID)
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.New(errors.CodeRateLimited, "image provider rate limit exceeded")
	default:
		return errors.UpstreamUnavailable("image provider",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}
