package xapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DefaultBaseURL = "https://api.x.com"

// Public bearer shipped with the X web client. It only grants guest
// access; real access comes from the session cookies.
const webBearer = "AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs%3D1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA"

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36"

// Client talks to the X private web API, the same one the browser app
// uses. It can only produce authenticated Sessions; all searching goes
// through a Session.
type Client struct {
	baseURL string
	bearer  string
	timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		bearer:  webBearer,
		timeout: timeout,
	}
}

// Session is an authenticated handle on the X API. The only way to get
// one is Client.Login, so holding a Session means login succeeded.
type Session struct {
	baseURL    string
	bearer     string
	csrf       string
	httpClient *http.Client
}

func (c *Client) activateGuest(ctx context.Context, hc *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/1.1/guest/activate.json", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer)
	req.Header.Set("User-Agent", userAgent)

	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("guest activation error %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		GuestToken string `json:"guest_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if result.GuestToken == "" {
		return "", fmt.Errorf("guest activation returned no token")
	}
	return result.GuestToken, nil
}
