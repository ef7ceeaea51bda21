package bexio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"belegsort/internal/logging"
	"belegsort/internal/textutil"
)

const (
	defaultBaseURL     = "https://api.bexio.com"
	defaultPageSize    = 500
	defaultHTTPTimeout = 30 * time.Second
)

// ErrUnauthorized signals an invalid or expired personal access token.
var ErrUnauthorized = errors.New("bexio: unauthorized (token invalid or expired)")

// Document describes one entry from the bexio files API.
type Document struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
	CreatedAt string `json:"created_at"`
	Archived  bool   `json:"is_archived"`
}

// Filename returns the sanitized local filename for the document.
func (d Document) Filename() string {
	name := textutil.SanitizeFileNamePart(d.Name)
	if name == "" {
		name = fmt.Sprintf("dokument-%d", d.ID)
	}
	ext := strings.TrimPrefix(strings.TrimSpace(d.Extension), ".")
	if ext == "" {
		return name
	}
	return name + "." + strings.ToLower(ext)
}

// Config captures the runtime settings required to talk to the files API.
type Config struct {
	Token          string
	BaseURL        string
	TimeoutSeconds int
	PageSize       int
}

// Client wraps the bexio files API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a files API client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.Token == "" {
		return nil, errors.New("bexio: access token required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// List pages through all documents, including archived ones.
func (c *Client) List(ctx context.Context) ([]Document, error) {
	var all []Document
	offset := 0
	for {
		page, err := c.listPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < c.cfg.PageSize {
			return all, nil
		}
		offset += len(page)
	}
}

func (c *Client) listPage(ctx context.Context, offset int) ([]Document, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "3.0", "files")
	if err != nil {
		return nil, fmt.Errorf("bexio list: build url: %w", err)
	}
	query := url.Values{}
	query.Set("archived_state", "all")
	query.Set("limit", strconv.Itoa(c.cfg.PageSize))
	query.Set("offset", strconv.Itoa(offset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("bexio list: new request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bexio list: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("bexio list: %w", err)
	}

	var docs []Document
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, fmt.Errorf("bexio list: decode response: %w", err)
	}
	return docs, nil
}

// Download streams one document's binary content to w.
func (c *Client) Download(ctx context.Context, id int, w io.Writer) error {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "3.0", "files", strconv.Itoa(id), "download")
	if err != nil {
		return fmt.Errorf("bexio download: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("bexio download: new request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bexio download: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("bexio download file %d: %w", id, err)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("bexio download file %d: stream body: %w", id, err)
	}
	return nil
}

// FetchAll materializes the remote document list into dir, skipping files
// that already exist locally. Individual download failures are logged and
// counted but do not abort the batch. Returns the number of files written.
func (c *Client) FetchAll(ctx context.Context, dir string, logger *slog.Logger) (int, error) {
	logger = logging.NewComponentLogger(logger, "bexio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create download directory: %w", err)
	}

	docs, err := c.List(ctx)
	if err != nil {
		return 0, err
	}
	logger.Info("document list fetched", logging.Int("count", len(docs)))

	written := 0
	for _, doc := range docs {
		if ctx.Err() != nil {
			return written, ctx.Err()
		}
		target := filepath.Join(dir, doc.Filename())
		if _, err := os.Stat(target); err == nil {
			logger.Debug("skipping existing file", logging.String("file", doc.Filename()))
			continue
		}
		if err := c.downloadTo(ctx, doc.ID, target); err != nil {
			logger.Warn("download failed",
				logging.String("file", doc.Filename()),
				logging.Int("id", doc.ID),
				logging.Error(err),
			)
			continue
		}
		written++
		logger.Info("downloaded", logging.String("file", doc.Filename()))
	}
	return written, nil
}

func (c *Client) downloadTo(ctx context.Context, id int, target string) error {
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if err := c.Download(ctx, id, file); err != nil {
		_ = file.Close()
		_ = os.Remove(target)
		return err
	}
	return file.Close()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
