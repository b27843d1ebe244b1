// Package client talks to the question endpoint over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mccayce/qboard/internal/models"
)

// StatusError is a non-2xx answer. Code is the server's error code if it sent one.
type StatusError struct {
	Status int
	Code   string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("questions: %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("questions: %d", e.Status)
}

type Client struct {
	URL        string
	HTTPClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

func New(url string, opts ...Option) *Client {
	c := &Client{URL: url, HTTPClient: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wireQuestion accepts the legacy muted/blinded flags alongside hidden.
type wireQuestion struct {
	models.Question
	Muted   bool `json:"muted"`
	Blinded bool `json:"blinded"`
}

// List fetches every question, hidden ones included.
func (c *Client) List(ctx context.Context) ([]models.Question, error) {
	var raw []wireQuestion
	if err := c.do(ctx, http.MethodGet, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]models.Question, 0, len(raw))
	for _, w := range raw {
		q := w.Question
		q.Hidden = q.Hidden || w.Muted || w.Blinded
		if q.Votes < 0 {
			q.Votes = 0
		}
		out = append(out, q)
	}
	return out, nil
}

func (c *Client) Submit(ctx context.Context, text string) (models.Question, error) {
	var q models.Question
	err := c.do(ctx, http.MethodPost, map[string]string{"text": text}, &q)
	return q, err
}

// Act applies a named action such as "upvote" or "hide".
func (c *Client) Act(ctx context.Context, id string, action models.Action) (models.Question, error) {
	var out struct {
		OK  bool            `json:"ok"`
		Row models.Question `json:"row"`
	}
	err := c.do(ctx, http.MethodPatch, map[string]string{"id": id, "action": action.String()}, &out)
	return out.Row, err
}

func (c *Client) Upvote(ctx context.Context, id string) error {
	_, err := c.Act(ctx, id, models.ActionUpvote)
	return err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, map[string]string{"id": id}, nil)
}

func (c *Client) ClearAll(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, map[string]bool{"all": true}, nil)
}

func (c *Client) do(ctx context.Context, method string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Status: resp.StatusCode, Code: e.Error}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
