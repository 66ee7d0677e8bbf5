package services

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

	"main/utils"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultUpstreamBaseURL is the fallback host used when UPSTREAM_BASE_URL
// is not set.
const DefaultUpstreamBaseURL = "http://peoplepulse.diu.edu.bd:8189"

// upstreamTimeout is the fixed per-call deadline. There is no retry; the
// original caller resubmits.
const upstreamTimeout = 10 * time.Second

// UpstreamClient is the single HTTP client bound to the university
// administrative backend. All proxy routes go through it.
type UpstreamClient struct {
	baseURL string
	http    *http.Client
}

// NewUpstreamClient builds a client from the environment.
func NewUpstreamClient() *UpstreamClient {
	base := utils.GetEnvAsString("UPSTREAM_BASE_URL", DefaultUpstreamBaseURL)
	return NewUpstreamClientWithBase(base)
}

// NewUpstreamClientWithBase builds a client against an explicit base URL.
func NewUpstreamClientWithBase(base string) *UpstreamClient {
	return &UpstreamClient{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: upstreamTimeout},
	}
}

// BaseURL returns the configured upstream base URL.
func (uc *UpstreamClient) BaseURL() string {
	return uc.baseURL
}

// UpstreamResponse is the relayed result of one upstream call. A non-2xx
// status is a valid response, not an error; only transport failures error.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *UpstreamResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the response body into v.
func (r *UpstreamResponse) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

func (uc *UpstreamClient) Get(ctx context.Context, path string, query url.Values, headers http.Header) (*UpstreamResponse, error) {
	return uc.do(ctx, http.MethodGet, path, query, nil, headers)
}

func (uc *UpstreamClient) Post(ctx context.Context, path string, query url.Values, body interface{}, headers http.Header) (*UpstreamResponse, error) {
	return uc.do(ctx, http.MethodPost, path, query, body, headers)
}

func (uc *UpstreamClient) Put(ctx context.Context, path string, query url.Values, body interface{}, headers http.Header) (*UpstreamResponse, error) {
	return uc.do(ctx, http.MethodPut, path, query, body, headers)
}

func (uc *UpstreamClient) Delete(ctx context.Context, path string, query url.Values, headers http.Header) (*UpstreamResponse, error) {
	return uc.do(ctx, http.MethodDelete, path, query, nil, headers)
}

// Do forwards an arbitrary method, for the catch-all proxy route.
func (uc *UpstreamClient) Do(ctx context.Context, method, path string, query url.Values, body interface{}, headers http.Header) (*UpstreamResponse, error) {
	return uc.do(ctx, method, path, query, body, headers)
}

func (uc *UpstreamClient) do(ctx context.Context, method, path string, query url.Values, body interface{}, headers http.Header) (*UpstreamResponse, error) {
	target := uc.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		if len(b) > 0 {
			reader = bytes.NewReader(b)
		}
	case json.RawMessage:
		if len(b) > 0 {
			reader = bytes.NewReader(b)
		}
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	for key, values := range headers {
		// The forwarding target is never caller-controlled.
		if strings.EqualFold(key, "Host") {
			continue
		}
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	timer := prometheus.NewTimer(utils.UpstreamRequestDuration.WithLabelValues(method))
	resp, err := uc.http.Do(req)
	timer.ObserveDuration()
	if err != nil {
		utils.TrackUpstreamRequest(method, "error")
		utils.TrackError("upstream", "request_failed")
		return nil, fmt.Errorf("upstream request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		utils.TrackUpstreamRequest(method, "error")
		utils.TrackError("upstream", "read_body_failed")
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	utils.TrackUpstreamRequest(method, strconv.Itoa(resp.StatusCode))

	return &UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
