// Package nocodb is a store.Table backed by the NocoDB v2 records API.
package nocodb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mccayce/qboard/internal/store"
)

// ErrTokenMissing is returned by every call when no API token is configured.
var ErrTokenMissing = errors.New("noco_token_missing")

// Error is a non-2xx answer from NocoDB. Message is the server's msg or
// message field when present, otherwise noco_<status>.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

type Client struct {
	BaseURL    string
	TableID    string
	Token      string
	HTTPClient *http.Client
	Log        *zap.Logger
}

// Option configures the Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.Log = log }
}

func New(baseURL, tableID, token string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		TableID:    tableID,
		Token:      token,
		HTTPClient: &http.Client{},
		Log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ store.Table = (*Client)(nil)

// EscapeWhereValue escapes the where-clause metacharacters "," and ")".
func EscapeWhereValue(v string) string {
	v = strings.ReplaceAll(v, ",", `\,`)
	return strings.ReplaceAll(v, ")", `\)`)
}

func (c *Client) recordsPath() string {
	return "/api/v2/tables/" + url.PathEscape(c.TableID) + "/records"
}

func (c *Client) List(ctx context.Context, limit int) ([]store.Row, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	return c.list(ctx, q)
}

func (c *Client) FindByQID(ctx context.Context, qid string) ([]store.Row, error) {
	q := url.Values{}
	q.Set("where", "(qid,eq,"+EscapeWhereValue(qid)+")")
	return c.list(ctx, q)
}

func (c *Client) list(ctx context.Context, q url.Values) ([]store.Row, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, c.recordsPath()+"?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	rows := make([]store.Row, 0, len(out.List))
	for _, r := range out.List {
		rows = append(rows, r.toRow())
	}
	return rows, nil
}

func (c *Client) Insert(ctx context.Context, row store.Row) error {
	body := createBody{QID: row.QID, Text: row.Text, Votes: row.Votes, Hidden: row.Hidden}
	return c.do(ctx, http.MethodPost, c.recordsPath(), body, nil)
}

func (c *Client) Update(ctx context.Context, patches []store.Patch) error {
	body := make([]patchBody, 0, len(patches))
	for _, p := range patches {
		body = append(body, patchBody{ID: p.RID, Votes: p.Votes, Hidden: p.Hidden})
	}
	return c.do(ctx, http.MethodPatch, c.recordsPath(), body, nil)
}

func (c *Client) Delete(ctx context.Context, rids []int64) error {
	body := make([]ridBody, 0, len(rids))
	for _, id := range rids {
		body = append(body, ridBody{ID: id})
	}
	return c.do(ctx, http.MethodDelete, c.recordsPath(), body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.Token == "" {
		return ErrTokenMissing
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("xc-token", c.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Log.Warn("nocodb: request failed", zap.String("method", method), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	c.Log.Debug("nocodb: request",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("nocodb: decode response: %w", err)
	}
	return nil
}

func errorMessage(raw []byte, status int) string {
	var e struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &e) == nil {
		if e.Msg != "" {
			return e.Msg
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return fmt.Sprintf("noco_%d", status)
}
