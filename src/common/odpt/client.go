package odpt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jack-barr3tt/odpt-stations/src/common/types"
	"go.uber.org/zap"
)

const (
	EndpointOperator = "odpt:Operator"
	EndpointRailway  = "odpt:Railway"
	EndpointStation  = "odpt:Station"

	ParamConsumerKey = "acl:consumerKey"
	ParamOperator    = "odpt:operator"
	ParamRailway     = "odpt:railway"

	redactedKey = "<API_KEY_REDACTED>"
)

// RequestError is returned for any failed call. Its text never contains
// the access key.
type RequestError struct {
	Endpoint   string
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d from %s", e.Endpoint, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("%s: request to %s failed: %v", e.Endpoint, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.SugaredLogger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/") + "/",
		apiKey:     apiKey,
		logger:     logger,
	}
}

// redact strips the access key from s.
func (c *Client) redact(s string) string {
	if c.apiKey == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(c.apiKey), redactedKey)
	return strings.ReplaceAll(s, c.apiKey, redactedKey)
}

func (c *Client) requestURL(endpoint string, params url.Values) string {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set(ParamConsumerKey, c.apiKey)
	return c.baseURL + endpoint + "?" + query.Encode()
}

// get issues one GET and decodes the JSON array body into records.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]types.Record, error) {
	rawURL := c.requestURL(endpoint, params)
	safeURL := c.redact(rawURL)
	c.logger.Debugw("requesting", "url", safeURL)

	// transport errors embed the full URL, so only their redacted text is kept
	fail := func(status int, err error) error {
		if err != nil {
			err = errors.New(c.redact(err.Error()))
		}
		return &RequestError{Endpoint: endpoint, URL: safeURL, StatusCode: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fail(0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fail(0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fail(0, fmt.Errorf("read body: %w", err))
	}

	if !utf8.Valid(body) {
		return nil, fail(0, errors.New("response is not valid UTF-8"))
	}

	var records []types.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fail(0, fmt.Errorf("decode response: %w", err))
	}

	return records, nil
}

func (c *Client) FetchOperators(ctx context.Context) ([]types.Operator, error) {
	c.logger.Info("Fetching operators...")
	operators, err := c.get(ctx, EndpointOperator, nil)
	if err != nil {
		return nil, err
	}
	c.logger.Infow("Found operators", "count", len(operators))
	return operators, nil
}

// FetchRailways lists railways, filtered by operator when one is given.
func (c *Client) FetchRailways(ctx context.Context, operatorID string) ([]types.Railway, error) {
	params := url.Values{}
	if operatorID != "" {
		params.Set(ParamOperator, operatorID)
		c.logger.Infow("Fetching railways", "operator", operatorID)
	} else {
		c.logger.Info("Fetching all railways...")
	}

	railways, err := c.get(ctx, EndpointRailway, params)
	if err != nil {
		return nil, err
	}
	c.logger.Infow("Found railways", "count", len(railways))
	return railways, nil
}

// FetchStations lists stations, filtered by railway when one is given.
func (c *Client) FetchStations(ctx context.Context, railwayID string) ([]types.Station, error) {
	params := url.Values{}
	if railwayID != "" {
		params.Set(ParamRailway, railwayID)
	}
	return c.get(ctx, EndpointStation, params)
}
