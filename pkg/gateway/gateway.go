package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://search.kmb.hk/KMBWebSite/Function/FunctionRequest.ashx"
	DefaultEtaURL  = "https://etav3.kmb.hk/"
	DefaultTimeout = 30 * time.Second
)

type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

type Options struct {
	BaseURL string
	EtaURL  string

	// CorsProxyURL is put in front of the ETA url, for callers that can only reach it through a proxy
	CorsProxyURL string

	Timeout   time.Duration
	Transport http.RoundTripper
}

type Client struct {
	baseURL    string
	etaURL     string
	httpClient *http.Client
}

func NewClient(options Options) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	etaURL := options.EtaURL
	if etaURL == "" {
		etaURL = DefaultEtaURL
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		etaURL:  options.CorsProxyURL + etaURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newLoggingTransport(options.Transport),
		},
	}
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Result bool            `json:"result"`
}

// Call runs an action of the search endpoint and returns the data member of its response
func (c *Client) Call(ctx context.Context, action string, params Query) (json.RawMessage, error) {
	query := Query{}.Add("action", action)
	query = append(query, params...)

	var response envelope
	if err := c.do(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil, &response); err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	return response.Data, nil
}

// EtaRecord is a single arrival as sent by the ETA endpoint. Time starts with HH:mm when
// the record is an actual arrival, Distance is only a number when the bus is tracked.
type EtaRecord struct {
	Time     string `json:"t"`
	Distance any    `json:"dis"`
}

type etaResponse []struct {
	Eta []EtaRecord `json:"eta"`
}

func (r etaResponse) records() []EtaRecord {
	if len(r) == 0 {
		return []EtaRecord{}
	}

	return r[0].Eta
}

func (c *Client) GetEta(ctx context.Context, query Query) ([]EtaRecord, error) {
	fullQuery := Query{}.Add("action", "geteta")
	fullQuery = append(fullQuery, query...)

	var response etaResponse
	if err := c.do(ctx, http.MethodGet, c.etaURL+"?"+fullQuery.Encode(), nil, &response); err != nil {
		return nil, err
	}

	return response.records(), nil
}

type etaRequest struct {
	D   string `json:"d"`
	Ctr int    `json:"ctr"`
}

// PostEta requests arrivals the way the web frontend does, with the whole query encrypted into d
func (c *Client) PostEta(ctx context.Context, d string, ctr int) ([]EtaRecord, error) {
	body, err := json.Marshal(etaRequest{D: d, Ctr: ctr})
	if err != nil {
		return nil, err
	}

	var response etaResponse
	if err := c.do(ctx, http.MethodPost, c.etaURL+"?action=geteta", body, &response); err != nil {
		return nil, err
	}

	return response.records(), nil
}

func (c *Client) do(ctx context.Context, method string, url string, body []byte, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
