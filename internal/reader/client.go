// Package reader bridges a card reader to the event service: every key read
// becomes a login or logout scan posted with the gate's staff token.
package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
)

var ErrUnauthorized = errors.New("event service rejected the credentials")

// Result mirrors the attendance response body.
type Result struct {
	Activity string  `json:"activity"`
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Person   *Person `json:"person,omitempty"`
}

type Person struct {
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	Team       string `json:"team"`
	Division   string `json:"division"`
	Role       string `json:"role"`
	University string `json:"university"`
	Photo      string `json:"photo,omitempty"`
}

type Client struct {
	baseURL  string
	username string
	password string
	retry    *retryablehttp.Client
	http     *http.Client

	mu    sync.Mutex
	token string
}

// NewClient talks to the event service at baseURL, retrying transient
// failures up to retries times.
func NewClient(baseURL, username, password string, retries int) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = logrusAdapter{}
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.CheckRetry = checkRetry

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		retry:    rc,
		http:     rc.StandardClient(),
	}
}

type scanRequestKey struct{}

// checkRetry keeps the default policy for token requests. A scan toggles the
// card on the server, so it is only retried when the connection could not be
// opened and nothing was sent. Timeouts and 5xx may follow a committed scan.
func checkRetry(ctx context.Context, rsp *http.Response, err error) (bool, error) {
	if ctx.Value(scanRequestKey{}) == nil {
		return retryablehttp.DefaultRetryPolicy(ctx, rsp, err)
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	var opErr *net.OpError
	if err != nil && errors.As(err, &opErr) && opErr.Op == "dial" {
		return true, nil
	}
	return false, nil
}

// Authenticate fetches a fresh bearer token.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"username": c.username, "password": c.password})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/auth/token", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	rsp, err := c.do(req)
	if err != nil {
		return err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if rsp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request: unexpected status %d", rsp.StatusCode)
	}

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rsp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}

	c.mu.Lock()
	c.token = envelope.Data.Token
	c.mu.Unlock()
	return nil
}

// Scan posts one card key. An expired token is renewed once.
func (c *Client) Scan(ctx context.Context, mode, key string) (*Result, error) {
	res, err := c.scan(ctx, mode, key)
	if errors.Is(err, ErrUnauthorized) {
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
		res, err = c.scan(ctx, mode, key)
	}
	return res, err
}

func (c *Client) scan(ctx context.Context, mode, key string) (*Result, error) {
	form := url.Values{"card_key": {key}}
	ctx = context.WithValue(ctx, scanRequestKey{}, true)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/attendance/"+mode, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.mu.Lock()
	req.Header.Set("Authorization", "Bearer "+c.token)
	c.mu.Unlock()

	rsp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}

	res := &Result{}
	if err := json.NewDecoder(rsp.Body).Decode(res); err != nil {
		return nil, fmt.Errorf("decode scan result (status %d): %w", rsp.StatusCode, err)
	}
	return res, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	return c.http.Do(req)
}

// logrusAdapter satisfies retryablehttp.LeveledLogger.
type logrusAdapter struct{}

func fields(kv []interface{}) log.Fields {
	f := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}

func (logrusAdapter) Error(msg string, kv ...interface{}) { log.WithFields(fields(kv)).Error(msg) }
func (logrusAdapter) Warn(msg string, kv ...interface{})  { log.WithFields(fields(kv)).Warn(msg) }
func (logrusAdapter) Info(msg string, kv ...interface{})  { log.WithFields(fields(kv)).Debug(msg) }
func (logrusAdapter) Debug(msg string, kv ...interface{}) { log.WithFields(fields(kv)).Debug(msg) }
