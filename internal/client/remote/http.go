package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/dmitrijs2005/wecare/internal/logging"
	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// HTTPClient talks JSON over HTTP to the remote service.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	log     logging.Logger
}

type Option func(*options)

type options struct {
	transport http.RoundTripper
	tokens    TokenSource
	timeout   time.Duration
	log       logging.Logger
	now       func() time.Time
}

// WithTransport sets the round tripper requests go through, typically the
// response cache.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

func WithTokenSource(ts TokenSource) Option {
	return func(o *options) { o.tokens = ts }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

func withNow(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", baseURL)
	}

	o := options{
		transport: http.DefaultTransport,
		timeout:   defaultTimeout,
		log:       logging.Nop{},
		now:       time.Now,
	}
	for _, fn := range opts {
		fn(&o)
	}

	return &HTTPClient{
		baseURL: u,
		http: &http.Client{
			Timeout:   o.timeout,
			Transport: &bearerTransport{base: o.transport, tokens: o.tokens, now: o.now},
		},
		log: o.log.With("component", "remote"),
	}, nil
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends req and decodes a 2xx JSON body into out (when out is non-nil).
func (c *HTTPClient) do(req *http.Request, out any) error {
	op := req.Method + " " + req.URL.Path

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return err
		}
		return common.NetworkError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.NetworkError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rej := &common.RemoteRejection{Status: resp.StatusCode, Message: detail(body)}
		c.log.Warn(req.Context(), "remote rejected request", "op", op, "status", resp.StatusCode, "detail", rej.Message)
		return rej
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// detail extracts the explanation from an error body: {"detail": "..."} or
// plain text.
func detail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		return string(payload.Detail)
	}
	return strings.TrimSpace(string(body))
}

func (c *HTTPClient) newJSONRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, nil), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// SubmitConsultations posts the whole batch as one JSON array. A fresh batch
// id is sent along for log correlation on both sides.
func (c *HTTPClient) SubmitConsultations(ctx context.Context, batch []models.SyncItem) error {
	if batch == nil {
		batch = []models.SyncItem{}
	}
	batchID := uuid.NewString()
	ctx = logging.ContextWith(ctx, "batch_id", batchID)
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/sync/consultations", batch)
	if err != nil {
		return err
	}
	req.Header.Set(common.BatchIDHeaderName, batchID)

	if err := c.do(req, nil); err != nil {
		return err
	}
	c.log.Debug(ctx, "sync batch accepted", "items", len(batch))
	return nil
}

// FetchDomain returns the full current list of a reference domain. The remote
// wraps lists in an object keyed by the domain name: {"doctors": [...]}.
func (c *HTTPClient) FetchDomain(ctx context.Context, domain models.Domain, query url.Values) ([]models.ReferenceEntity, error) {
	if _, err := models.ParseDomain(string(domain)); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnknownDomain, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/"+string(domain), query), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var wrapped map[string]json.RawMessage
	if err := c.do(req, &wrapped); err != nil {
		return nil, err
	}
	var raws []json.RawMessage
	if list, ok := wrapped[string(domain)]; ok && string(list) != "null" {
		if err := json.Unmarshal(list, &raws); err != nil {
			return nil, fmt.Errorf("decode %s list: %w", domain, err)
		}
	}

	out := make([]models.ReferenceEntity, 0, len(raws))
	for _, raw := range raws {
		e, err := models.ParseReferenceEntity(domain, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// CreateConsultation sends a submission to the processing service as a
// multipart form, with the media file attached when present.
func (c *HTTPClient) CreateConsultation(ctx context.Context, sub models.Submission) (*models.TriageResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if strings.TrimSpace(sub.Symptoms) != "" {
		if err := mw.WriteField("symptoms", sub.Symptoms); err != nil {
			return nil, err
		}
	}
	if err := mw.WriteField("use_history", strconv.FormatBool(sub.UseHistory)); err != nil {
		return nil, err
	}
	if sub.HasMedia() {
		name := sub.MediaName
		if name == "" {
			name = "image"
		}
		fw, err := mw.CreateFormFile("image", name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(sub.Media); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/consultation", nil), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var res models.TriageResult
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	in := map[string]string{"username": username, "password": password}
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/auth/login", in)
	if err != nil {
		return nil, err
	}
	var res LoginResult
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, fmt.Errorf("login: empty access token: %w", common.ErrUnauthorized)
	}
	return &res, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.Profile, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var p models.Profile
	if err := c.do(req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
