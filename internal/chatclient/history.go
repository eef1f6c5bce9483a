package chatclient

import (
	"TaskChatAPI/internal/helper"
	"TaskChatAPI/internal/model"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPError is a non-2xx answer from the request surface.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("chatclient: http %d: %s", e.Status, e.Message)
}

// History is the request surface a screen reads from.
type History interface {
	Page(ctx context.Context, conversationID string, page, limit int) (*model.MessagePageResponse, error)
}

type HistoryClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

func NewHistoryClient(baseURL, token string, httpClient *http.Client) *HistoryClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HistoryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		maxRetries: 2,
		baseDelay:  200 * time.Millisecond,
	}
}

func (c *HistoryClient) FindOrCreate(ctx context.Context, receiverID string) (string, error) {
	var resp model.CreateConversationResponse
	if err := c.do(ctx, http.MethodPost, "/conversation", model.CreateConversationRequest{ReceiverID: receiverID}, &resp); err != nil {
		return "", err
	}
	return resp.ConversationID, nil
}

func (c *HistoryClient) List(ctx context.Context) (*model.ConversationListResponse, error) {
	var resp model.ConversationListResponse
	if err := c.do(ctx, http.MethodGet, "/conversation", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HistoryClient) Page(ctx context.Context, conversationID string, page, limit int) (*model.MessagePageResponse, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}

	path := fmt.Sprintf("/conversation/%s/message", url.PathEscape(conversationID))
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp model.MessagePageResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do retries transport errors, 5xx and 429 with backoff. Other statuses are
// returned as *HTTPError straight away.
func (c *HistoryClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	resp, err := helper.RetryWithBackoffContext(ctx, func() (*http.Response, bool, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, false, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if helper.ShouldRetryHTTP(resp, err) {
			if err == nil {
				err = readHTTPError(resp)
			}
			return nil, ctx.Err() == nil, err
		}
		return resp, false, nil
	}, c.maxRetries, c.baseDelay)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readHTTPError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readHTTPError(resp *http.Response) error {
	defer resp.Body.Close()

	var body helper.ResponseError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}
	return &HTTPError{Status: resp.StatusCode, Message: body.Error}
}
