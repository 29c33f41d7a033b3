// Package apiclient is the data layer used by taskboard clients. Reads are
// cached per resource and dropped when a mutation makes them stale.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"taskboard/internal/auth"
	"taskboard/internal/schema"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 256

// ErrUnauthenticated is returned when the server sends the request to the login flow.
var ErrUnauthenticated = errors.New("apiclient: not authenticated")

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, e.Field)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cookieName string
	token      string
	cacheSize  int
	cache      *lru.Cache[Key, []byte]
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithSessionToken sends token as the session cookie on every request.
func WithSessionToken(token string) Option {
	return func(cl *Client) { cl.token = token }
}

func WithCookieName(name string) Option {
	return func(cl *Client) { cl.cookieName = name }
}

func WithCacheSize(n int) Option {
	return func(cl *Client) { cl.cacheSize = n }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		cookieName: "session",
		cacheSize:  defaultCacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Copy so the caller's client keeps its own redirect policy.
	hc := *c.httpClient
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.httpClient = &hc

	cache, err := lru.New[Key, []byte](c.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	c.cache = cache

	return c, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]schema.Project, error) {
	var out []schema.Project
	err := c.cachedGet(ctx, Key{Kind: KindProjects}, "/projects", &out)
	return out, err
}

func (c *Client) GetProject(ctx context.Context, id int) (*schema.Project, error) {
	var out schema.Project
	if err := c.cachedGet(ctx, projectKey(id), "/projects/"+strconv.Itoa(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProject(ctx context.Context, input schema.CreateProjectInput) (*schema.Project, error) {
	var out schema.Project
	if err := c.do(ctx, http.MethodPost, "/projects", input, &out); err != nil {
		return nil, err
	}
	c.Invalidate(KindProjects)
	return &out, nil
}

func (c *Client) UpdateProject(ctx context.Context, id int, patch schema.UpdateProjectInput) (*schema.Project, error) {
	var out schema.Project
	if err := c.do(ctx, http.MethodPatch, "/projects/"+strconv.Itoa(id), patch, &out); err != nil {
		return nil, err
	}
	c.Invalidate(KindProjects)
	c.Invalidate(KindProject, strconv.Itoa(id))
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id int) error {
	if err := c.do(ctx, http.MethodDelete, "/projects/"+strconv.Itoa(id), nil, nil); err != nil {
		return err
	}
	c.Invalidate(KindProjects)
	c.Invalidate(KindProject, strconv.Itoa(id))
	c.Invalidate(KindTickets, strconv.Itoa(id))
	return nil
}

func (c *Client) ListTickets(ctx context.Context, projectID int) ([]schema.Ticket, error) {
	var out []schema.Ticket
	err := c.cachedGet(ctx, ticketsKey(projectID), "/projects/"+strconv.Itoa(projectID)+"/tickets", &out)
	return out, err
}

func (c *Client) GetTicket(ctx context.Context, id int) (*schema.Ticket, error) {
	var out schema.Ticket
	if err := c.cachedGet(ctx, ticketKey(id), "/tickets/"+strconv.Itoa(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTicket(ctx context.Context, input schema.CreateTicketInput) (*schema.Ticket, error) {
	var out schema.Ticket
	if err := c.do(ctx, http.MethodPost, "/tickets", input, &out); err != nil {
		return nil, err
	}
	c.Invalidate(KindTickets, strconv.Itoa(out.ProjectID))
	return &out, nil
}

// UpdateTicket patches a ticket. When the ticket moves to another project
// both projects' ticket lists are dropped; if the old project is not known
// from the cache every ticket list is dropped.
func (c *Client) UpdateTicket(ctx context.Context, id int, patch schema.UpdateTicketInput) (*schema.Ticket, error) {
	previous, known := c.cachedTicketProject(id)

	var out schema.Ticket
	if err := c.do(ctx, http.MethodPatch, "/tickets/"+strconv.Itoa(id), patch, &out); err != nil {
		return nil, err
	}

	c.Invalidate(KindTickets, strconv.Itoa(out.ProjectID))
	c.Invalidate(KindTicket, strconv.Itoa(id))
	switch {
	case known && previous != out.ProjectID:
		c.Invalidate(KindTickets, strconv.Itoa(previous))
	case !known && patch.ProjectID.Set:
		c.invalidateKind(KindTickets)
	}
	return &out, nil
}

// DeleteTicket removes a ticket; projectID names the list it disappears from.
// With projectID 0 the project comes from the cached ticket, and when that is
// unknown every ticket list is dropped.
func (c *Client) DeleteTicket(ctx context.Context, id, projectID int) error {
	if projectID == 0 {
		projectID, _ = c.cachedTicketProject(id)
	}
	if err := c.do(ctx, http.MethodDelete, "/tickets/"+strconv.Itoa(id), nil, nil); err != nil {
		return err
	}
	if projectID != 0 {
		c.Invalidate(KindTickets, strconv.Itoa(projectID))
	} else {
		c.invalidateKind(KindTickets)
	}
	c.Invalidate(KindTicket, strconv.Itoa(id))
	return nil
}

// CurrentUser is not cached.
func (c *Client) CurrentUser(ctx context.Context) (*auth.User, error) {
	var out auth.User
	if err := c.do(ctx, http.MethodGet, "/auth/user", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) cachedTicketProject(id int) (int, bool) {
	raw, ok := c.cache.Peek(ticketKey(id))
	if !ok {
		return 0, false
	}
	var t schema.Ticket
	if err := json.Unmarshal(raw, &t); err != nil {
		return 0, false
	}
	return t.ProjectID, true
}

func (c *Client) cachedGet(ctx context.Context, key Key, path string, dst any) error {
	if raw, ok := c.cache.Get(key); ok {
		return json.Unmarshal(raw, dst)
	}

	raw, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	c.cache.Add(key, raw)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	raw, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if dst == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: c.token})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		return nil, ErrUnauthenticated
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthenticated
	case resp.StatusCode >= 400:
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Message string `json:"message"`
			Field   string `json:"field"`
		}
		if json.Unmarshal(raw, &body) == nil && body.Message != "" {
			apiErr.Message = body.Message
			apiErr.Field = body.Field
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}
	return raw, nil
}
