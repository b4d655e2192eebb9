package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	models "github.com/phillip/riseandserve-go/models"
	services "github.com/phillip/riseandserve-go/services"
)

const (
	readAttempts = 3
	retryBackoff = 200 * time.Millisecond
)

// HTTPClient talks to the events REST API. Failures come back as
// *services.Error carrying the same kinds the server produced.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient targets baseURL (e.g. "http://localhost:8080"). When token
// is non-empty it is sent as a bearer token on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithToken returns a copy that authenticates as another identity.
func (c *HTTPClient) WithToken(token string) *HTTPClient {
	cp := *c
	cp.token = token
	return &cp
}

// --- Events ---

func (c *HTTPClient) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := c.doJSON(ctx, http.MethodGet, "/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *HTTPClient) SearchEvents(ctx context.Context, q services.Query) ([]models.Event, error) {
	v := url.Values{}
	if q.Keyword != "" {
		v.Set("search", q.Keyword)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Upcoming {
		v.Set("upcoming", "true")
	}
	path := "/event-search"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var events []models.Event
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *HTTPClient) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := c.doJSON(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *HTTPClient) ListEventsByCreator(ctx context.Context, email string) ([]models.Event, error) {
	var events []models.Event
	if err := c.doJSON(ctx, http.MethodGet, "/events/creator/"+url.PathEscape(email), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *HTTPClient) CreateEvent(ctx context.Context, draft models.EventDraft) (*models.Event, error) {
	var event models.Event
	if err := c.doJSON(ctx, http.MethodPost, "/events", draft, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *HTTPClient) UpdateEvent(ctx context.Context, id string, patch models.EventPatch) (*models.Event, error) {
	var resp struct {
		Event models.Event `json:"event"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/events/"+url.PathEscape(id), patch, &resp); err != nil {
		return nil, err
	}
	return &resp.Event, nil
}

func (c *HTTPClient) DeleteEvent(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/events/"+url.PathEscape(id), nil, nil)
}

// --- Participation ---

func (c *HTTPClient) JoinEvent(ctx context.Context, id string) (*models.Event, error) {
	var resp struct {
		Event models.Event `json:"event"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/events/"+url.PathEscape(id)+"/join", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Event, nil
}

func (c *HTTPClient) JoinedStatus(ctx context.Context, id string) (bool, error) {
	var resp struct {
		Joined bool `json:"joined"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/events/"+url.PathEscape(id)+"/joined-status", nil, &resp); err != nil {
		return false, err
	}
	return resp.Joined, nil
}

// ListJoinedEvents lists the caller's joined events, or email's when set.
func (c *HTTPClient) ListJoinedEvents(ctx context.Context, email string) ([]models.Event, error) {
	path := "/events/joined"
	if email != "" {
		path += "?" + url.Values{"email": {email}}.Encode()
	}
	var events []models.Event
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// --- Derived artifacts ---

func (c *HTTPClient) GetPass(ctx context.Context, id string) (*models.PassPayload, error) {
	var pass models.PassPayload
	if err := c.doJSON(ctx, http.MethodGet, "/events/"+url.PathEscape(id)+"/pass", nil, &pass); err != nil {
		return nil, err
	}
	return &pass, nil
}

func (c *HTTPClient) GetCountdown(ctx context.Context, id string) (*models.Countdown, error) {
	var cd models.Countdown
	if err := c.doJSON(ctx, http.MethodGet, "/events/"+url.PathEscape(id)+"/countdown", nil, &cd); err != nil {
		return nil, err
	}
	return &cd, nil
}

// --- Discussion ---

func (c *HTTPClient) ListChats(ctx context.Context, eventID string) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := c.doJSON(ctx, http.MethodGet, "/events/"+url.PathEscape(eventID)+"/chats", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *HTTPClient) PostChat(ctx context.Context, eventID, text string) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	body := map[string]string{"message": text}
	if err := c.doJSON(ctx, http.MethodPost, "/events/"+url.PathEscape(eventID)+"/chats", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *HTTPClient) DeleteChat(ctx context.Context, eventID, messageID string) error {
	path := "/events/" + url.PathEscape(eventID) + "/chats/" + url.PathEscape(messageID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// errorBody is the server's JSON error shape.
type errorBody struct {
	Error  string   `json:"error"`
	Kind   string   `json:"kind"`
	Fields []string `json:"fields"`
}

// kindFor recovers the error kind from the body, falling back to the status.
func kindFor(status int, kind string) services.Kind {
	switch kind {
	case "validation":
		return services.KindValidation
	case "not_found":
		return services.KindNotFound
	case "forbidden":
		return services.KindForbidden
	case "conflict":
		return services.KindConflict
	case "unauthorized":
		return services.KindUnauthorized
	case "transient":
		return services.KindTransient
	case "internal":
		return services.KindInternal
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return services.KindValidation
	case http.StatusNotFound:
		return services.KindNotFound
	case http.StatusForbidden:
		return services.KindForbidden
	case http.StatusConflict:
		return services.KindConflict
	case http.StatusUnauthorized:
		return services.KindUnauthorized
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return services.KindTransient
	default:
		return services.KindInternal
	}
}

// doJSON performs a request with an optional JSON body and decodes the JSON
// response into result. Reads are retried on transient failures; writes are
// not, since a lost response leaves their outcome unknown.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = readAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			wait := retryBackoff << (i - 1)
			if ra, ok := lastErr.(*retryAfter); ok && ra.wait > wait {
				wait = ra.wait
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		err := c.once(ctx, method, path, data, result)
		if err == nil {
			return nil
		}
		lastErr = err
		if !services.IsKind(unwrapRetry(err), services.KindTransient) {
			break
		}
	}
	return unwrapRetry(lastErr)
}

func (c *HTTPClient) once(ctx context.Context, method, path string, data []byte, result any) error {
	var bodyReader io.Reader
	if data != nil {
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &services.Error{Kind: services.KindTransient, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &services.Error{Kind: services.KindTransient, Message: "reading response", Err: err}
	}

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.Unmarshal(respBody, &eb)
		if eb.Error == "" {
			eb.Error = strings.TrimSpace(string(respBody))
		}
		if eb.Error == "" {
			eb.Error = resp.Status
		}
		apiErr := &services.Error{Kind: kindFor(resp.StatusCode, eb.Kind), Message: eb.Error, Fields: eb.Fields}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return &retryAfter{err: apiErr, wait: time.Duration(secs) * time.Second}
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// retryAfter carries the server's Retry-After hint alongside the error.
type retryAfter struct {
	err  *services.Error
	wait time.Duration
}

func (r *retryAfter) Error() string { return r.err.Error() }
func (r *retryAfter) Unwrap() error { return r.err }

func unwrapRetry(err error) error {
	if ra, ok := err.(*retryAfter); ok {
		return ra.err
	}
	return err
}
