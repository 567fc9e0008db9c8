// Package client реализует HTTP-клиент сервиса состава команд.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"team-roster-service/internal/editor"
	"team-roster-service/internal/model"
)

const maxResponseBytes = 4 << 20

var (
	_ editor.MembershipService = (*Client)(nil)
	_ editor.UserRefresher     = (*Client)(nil)
	_ editor.PersonSearcher    = (*Client)(nil)
)

// APIError: ответ сервиса с кодом ошибки. Message пригоден для показа пользователю.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Client обращается к HTTP API сервиса состава от имени пользователя.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	mu   sync.RWMutex
	user *model.CurrentUser
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient задаёт собственный *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken задаёт bearer-токен пользователя.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New создаёт клиента для сервиса по адресу baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rosterEnvelope struct {
	Roster model.RosterSnapshot `json:"roster"`
}

// FetchRoster загружает снимок состава коллектива.
func (c *Client) FetchRoster(ctx context.Context, collectiveID string) (model.RosterSnapshot, error) {
	var out rosterEnvelope
	if err := c.do(ctx, http.MethodGet, rosterPath(collectiveID), nil, &out); err != nil {
		return model.RosterSnapshot{}, err
	}
	return out.Roster, nil
}

// UpdateRoster отправляет новый состав коллектива.
func (c *Client) UpdateRoster(ctx context.Context, collectiveID string, entries []model.UpdateEntry) (model.RosterSnapshot, error) {
	if entries == nil {
		entries = []model.UpdateEntry{}
	}
	body := struct {
		Members []model.UpdateEntry `json:"members"`
	}{Members: entries}

	var out rosterEnvelope
	if err := c.do(ctx, http.MethodPut, rosterPath(collectiveID), body, &out); err != nil {
		return model.RosterSnapshot{}, err
	}
	return out.Roster, nil
}

// RefreshCurrentUser перечитывает профиль и членства текущего пользователя.
func (c *Client) RefreshCurrentUser(ctx context.Context) error {
	var out struct {
		User model.CurrentUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return err
	}
	c.mu.Lock()
	c.user = &out.User
	c.mu.Unlock()
	return nil
}

// CurrentUser возвращает последний загруженный профиль пользователя.
func (c *Client) CurrentUser() (model.CurrentUser, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return model.CurrentUser{}, false
	}
	return *c.user, true
}

// SearchPeople ищет людей для выбора в состав.
func (c *Client) SearchPeople(ctx context.Context, q editor.PickerQuery) ([]model.Person, error) {
	params := url.Values{}
	params.Set("q", q.Text)
	if q.Type != "" {
		params.Set("type", q.Type)
	}
	if len(q.Exclude) > 0 {
		params.Set("exclude", strings.Join(q.Exclude, ","))
	}

	var out struct {
		People []model.Person `json:"people"`
	}
	if err := c.do(ctx, http.MethodGet, "/people/search?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.People, nil
}

func rosterPath(collectiveID string) string {
	return "/collectives/" + url.PathEscape(collectiveID) + "/roster"
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &payload); err == nil {
		apiErr.Code = payload.Error.Code
		apiErr.Message = payload.Error.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// IsCode сообщает, что err является ответом сервиса с указанным кодом.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
