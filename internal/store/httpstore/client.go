package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/store"
)

// Client is a Collection reached over HTTP.
type Client struct {
	base       string
	collection string
	token      string
	hc         *http.Client
}

var _ store.Collection = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBearer sends the token on every request.
func WithBearer(token string) ClientOption {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// NewClient returns a client for collection at baseURL (scheme and host,
// optionally a path prefix).
func NewClient(baseURL, collection string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url %q: scheme must be http or https", baseURL)
	}
	if collection == "" {
		collection = store.DefaultCollection
	}
	c := &Client{
		base:       strings.TrimRight(u.String(), "/"),
		collection: collection,
		hc:         &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) documentsURL() string {
	return c.base + apiPrefix + url.PathEscape(c.collection) + "/documents"
}

func (c *Client) documentURL(id string) string {
	return c.documentsURL() + "/" + url.PathEscape(id)
}

func (c *Client) List(ctx context.Context) ([]store.Document, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, c.documentsURL(), nil, &out); err != nil {
		return nil, fmt.Errorf("list %s: %w", c.collection, err)
	}
	if out.Documents == nil {
		out.Documents = []store.Document{}
	}
	return out.Documents, nil
}

func (c *Client) Create(ctx context.Context, f model.Fields) (string, error) {
	var out createResponse
	if err := c.do(ctx, http.MethodPost, c.documentsURL(), createRequest{Fields: f}, &out); err != nil {
		return "", fmt.Errorf("create in %s: %w", c.collection, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("create in %s: server returned no id", c.collection)
	}
	return out.ID, nil
}

func (c *Client) Update(ctx context.Context, id string, p model.Patch) error {
	err := c.do(ctx, http.MethodPatch, c.documentURL(id), patchRequest{Fields: p}, nil)
	if se, ok := err.(*StatusError); ok && se.Code == http.StatusNotFound {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", c.collection, id, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.documentURL(id), nil, nil); err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.collection, id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if json.Unmarshal(b, &er) != nil || er.Error == "" {
			er.Error = strings.TrimSpace(string(b))
		}
		return &StatusError{Code: resp.StatusCode, Message: er.Error}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
