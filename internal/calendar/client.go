package calendar

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

	"github.com/terraincognita07/pulselog/internal/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://www.googleapis.com/calendar/v3"
	DefaultRate     = 5
	defaultBurst    = 5
	maxErrorBody    = 64 << 10
	lookupPageLimit = "10"
)

// Client talks to the Calendar v3 REST API. The OAuth token is supplied per
// call; the client itself holds no credentials.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(client *Client) {
		client.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(client *Client) {
		if httpClient != nil {
			client.httpClient = httpClient
		}
	}
}

// WithRateLimit paces outgoing requests. A non-positive rate disables pacing.
func WithRateLimit(requestsPerSecond float64, burst int) ClientOption {
	return func(client *Client) {
		if requestsPerSecond <= 0 {
			client.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

func NewClient(options ...ClientOption) *Client {
	client := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRate), defaultBurst),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

func (client *Client) InsertEvent(ctx context.Context, token *oauth2.Token, calendarID string, event Event) (Event, error) {
	var created Event
	err := client.do(ctx, token, "insert", http.MethodPost, client.eventsPath(calendarID), nil, event, &created)
	return created, err
}

// UpdateEvent replaces the whole event resource.
func (client *Client) UpdateEvent(ctx context.Context, token *oauth2.Token, calendarID string, eventID string, event Event) (Event, error) {
	var updated Event
	path := client.eventsPath(calendarID) + "/" + url.PathEscape(eventID)
	err := client.do(ctx, token, "update", http.MethodPut, path, nil, event, &updated)
	return updated, err
}

// DeleteEvent treats an already missing event as deleted.
func (client *Client) DeleteEvent(ctx context.Context, token *oauth2.Token, calendarID string, eventID string) error {
	path := client.eventsPath(calendarID) + "/" + url.PathEscape(eventID)
	err := client.do(ctx, token, "delete", http.MethodDelete, path, nil, nil, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}

// FindEventsByReadingID searches by the private reading tag.
func (client *Client) FindEventsByReadingID(ctx context.Context, token *oauth2.Token, calendarID string, readingID string) ([]Event, error) {
	query := url.Values{}
	query.Set("privateExtendedProperty", ReadingIDProperty+"="+readingID)
	query.Set("showDeleted", "false")
	query.Set("maxResults", lookupPageLimit)

	var list eventList
	if err := client.do(ctx, token, "lookup", http.MethodGet, client.eventsPath(calendarID), query, nil, &list); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(list.Items))
	for _, event := range list.Items {
		if event.Status == "cancelled" {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (client *Client) ListCalendars(ctx context.Context, token *oauth2.Token) ([]CalendarListEntry, error) {
	entries := make([]CalendarListEntry, 0)
	pageToken := ""
	for {
		query := url.Values{}
		query.Set("minAccessRole", "writer")
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var page calendarList
		if err := client.do(ctx, token, "calendar_list", http.MethodGet, client.baseURL+"/users/me/calendarList", query, nil, &page); err != nil {
			return nil, err
		}
		entries = append(entries, page.Items...)
		if page.NextPageToken == "" {
			return entries, nil
		}
		pageToken = page.NextPageToken
	}
}

func (client *Client) eventsPath(calendarID string) string {
	return client.baseURL + "/calendars/" + url.PathEscape(calendarID) + "/events"
}

func (client *Client) do(ctx context.Context, token *oauth2.Token, operation string, method string, endpoint string, query url.Values, body any, out any) (err error) {
	start := time.Now()
	status := 0
	defer func() {
		metrics.ObserveCalendarCall(operation, status, err, time.Since(start))
	}()

	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("calendar %s: missing access token", operation)
	}
	if err := client.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("calendar %s: %w", operation, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("calendar %s: encode body: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("calendar %s: build request: %w", operation, err)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	token.SetAuthHeader(request)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("calendar %s: %w", operation, err)
	}
	defer response.Body.Close()
	status = response.StatusCode

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return readAPIError(operation, response)
	}
	if out == nil || response.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("calendar %s: decode response: %w", operation, err)
	}
	return nil
}

func readAPIError(operation string, response *http.Response) error {
	apiErr := &APIError{Operation: operation, StatusCode: response.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
	var parsed googleErrorBody
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error.Message != "" {
		apiErr.Message = parsed.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
