package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgallion1/blockboard/internal/blocktree"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"

	pageSize     = 100
	maxBodyBytes = 8 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Version    string
	Timeout    time.Duration // per remote call, including body read
	MaxRetries int
	ProxyURL   string
	Log        *slog.Logger
}

// Client talks to the block endpoints of the Notion API.
type Client struct {
	baseURL    string
	apiKey     string
	version    string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
	log        *slog.Logger

	backoff func(attempt int) time.Duration
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	transport, err := newTransport(opts.ProxyURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		version:    opts.Version,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		httpClient: &http.Client{Transport: transport},
		log:        opts.Log.With("component", "notion"),
		backoff:    Backoff,
	}, nil
}

// FetchChildren lists the children of a block, following pagination.
func (c *Client) FetchChildren(ctx context.Context, id string) ([]blocktree.RawNode, error) {
	var out []blocktree.RawNode
	cursor := ""
	for {
		q := url.Values{}
		q.Set("page_size", fmt.Sprint(pageSize))
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		body, err := c.do(ctx, blocktree.OpFetchChildren, id, http.MethodGet, "/blocks/"+id+"/children?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}

		var page listResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, &blocktree.RemoteError{Op: blocktree.OpFetchChildren, NodeID: id, Err: fmt.Errorf("decode children: %w", err)}
		}
		for _, b := range page.Results {
			out = append(out, b.raw())
		}
		if !page.HasMore || page.NextCursor == nil || *page.NextCursor == "" {
			break
		}
		cursor = *page.NextCursor
	}
	return out, nil
}

// CreateChildren appends blocks under parentID, directly after afterID when
// it is set, and returns the created first-level blocks.
func (c *Client) CreateChildren(ctx context.Context, parentID string, nodes []blocktree.NewNode, afterID string) ([]blocktree.RawNode, error) {
	req := appendRequest{After: afterID}
	for _, n := range nodes {
		req.Children = append(req.Children, newBlock(n))
	}
	body, err := c.do(ctx, blocktree.OpCreateChildren, parentID, http.MethodPatch, "/blocks/"+parentID+"/children", req)
	if err != nil {
		return nil, err
	}

	var created listResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, &blocktree.RemoteError{Op: blocktree.OpCreateChildren, NodeID: parentID, Err: fmt.Errorf("decode created blocks: %w", err)}
	}
	out := make([]blocktree.RawNode, 0, len(created.Results))
	for _, b := range created.Results {
		out = append(out, b.raw())
	}
	return out, nil
}

// DeleteNode archives a block. Blocks that are missing or already archived
// yield an error matching blocktree.ErrNodeGone.
func (c *Client) DeleteNode(ctx context.Context, id string) error {
	_, err := c.do(ctx, blocktree.OpDeleteNode, id, http.MethodDelete, "/blocks/"+id, nil)
	return err
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, op blocktree.Op, nodeID, method, path string, payload any) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, &blocktree.RemoteError{Op: op, NodeID: nodeID, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reqBody = b
	}

	for attempt := 0; ; attempt++ {
		body, status, header, err := c.once(ctx, method, path, reqBody)
		if err == nil && status >= 200 && status < 300 {
			return body, nil
		}

		rerr := remoteError(op, nodeID, status, body, err)
		if attempt >= c.maxRetries || ctx.Err() != nil || !retryable(op, status, err) {
			return nil, rerr
		}

		wait := c.backoff(attempt)
		if ra := retryAfter(header); ra > 0 {
			wait = ra
		}
		c.log.Warn("retrying notion call", "op", op, "node_id", nodeID, "status", status, "attempt", attempt, "wait", wait, "error", rerr)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, rerr
		}
	}
}

func (c *Client) once(ctx context.Context, method, path string, body []byte) ([]byte, int, http.Header, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Notion-Version", c.version)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, resp.Header, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, resp.Header, nil
}

// apiError is the error object returned by the API.
type apiError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func remoteError(op blocktree.Op, nodeID string, status int, body []byte, err error) *blocktree.RemoteError {
	re := &blocktree.RemoteError{Op: op, NodeID: nodeID, StatusCode: status, Err: err}
	if status == 0 {
		return re
	}
	var ae apiError
	if json.Unmarshal(body, &ae) == nil && ae.Code != "" {
		re.Code = ae.Code
		re.Message = ae.Message
	} else if len(body) > 0 {
		re.Message = truncate(string(body), 200)
	}
	if op == blocktree.OpDeleteNode {
		re.Gone = status == http.StatusNotFound ||
			(status == http.StatusBadRequest && strings.Contains(strings.ToLower(re.Message), "archived"))
	}
	return re
}

// retryable reports whether a failed call may be repeated. Creates are only
// repeated on 429 since a 5xx create may already have been applied.
func retryable(op blocktree.Op, status int, err error) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if op == blocktree.OpCreateChildren || op == blocktree.OpCreatePage {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	return status >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
