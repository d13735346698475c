package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	nethttp "net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/studyvault/notesdash/internal/config"
	"github.com/studyvault/notesdash/internal/constants"
	"github.com/studyvault/notesdash/internal/http"
	"github.com/studyvault/notesdash/internal/logging"
	"github.com/studyvault/notesdash/internal/models"
	"github.com/studyvault/notesdash/internal/progress"
	"github.com/studyvault/notesdash/internal/ratelimit"
)

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg("retry: " + msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not all info
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("retry: " + msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg("retry: " + msg)
}

// Client talks to the notes server under <origin>/api.
type Client struct {
	httpClient *nethttp.Client // retrying client for JSON calls
	rawClient  *nethttp.Client // uploads are never replayed
	baseURL    string
	token      string
	timeout    time.Duration
	limiter    *ratelimit.RateLimiter // nil = unlimited
	logger     *logging.Logger
}

// NewClient creates a new API client
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, fmt.Errorf("API base URL is empty - set api_base_url, NOTESDASH_URL or --api-url")
	}
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}

	httpClient, err := http.ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.Logger = &retryLogger{logger: logger}
	// Hand the last response back instead of a generic "giving up" error
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	token := cfg.Token
	if token == "" {
		token = constants.PlaceholderToken
	}

	return &Client{
		httpClient: retryClient.StandardClient(),
		rawClient:  httpClient,
		baseURL:    config.NormalizeBaseURL(cfg.APIBaseURL) + constants.APIPathPrefix,
		token:      token,
		timeout:    cfg.RequestTimeout,
		limiter:    ratelimit.NewAPIRateLimiter(cfg.RateLimit),
		logger:     logger,
	}, nil
}

// BaseURL returns the API root, e.g. http://127.0.0.1:5000/api
func (c *Client) BaseURL() string {
	return c.baseURL
}

// cancelOnClose releases a per-request timeout once the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// send applies pacing, auth headers and the optional request timeout.
func (c *Client) send(ctx context.Context, client *nethttp.Client, req *nethttp.Request) (*nethttp.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter cancelled: %w", err)
		}
	}

	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		var tctx context.Context
		tctx, cancel = context.WithTimeout(ctx, c.timeout)
		req = req.WithContext(tctx)
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Request-ID", requestID)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		cancel()
		c.logger.Debug().Str("request_id", requestID).Str("method", req.Method).
			Str("path", req.URL.Path).Err(err).Msg("API call failed")
		return nil, err
	}
	resp.Body = cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

	c.logger.Debug().Str("request_id", requestID).Str("method", req.Method).Str("path", req.URL.Path).
		Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("API call")

	if resp.StatusCode == nethttp.StatusTooManyRequests {
		c.logger.Warn().Str("method", req.Method).Str("path", req.URL.Path).Msg("throttled by notes server")
		if c.limiter != nil {
			c.limiter.Drain()
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				c.limiter.SetCooldown(time.Duration(secs) * time.Second)
			}
		}
	}

	return resp, nil
}

// doRequest performs a JSON request through the retrying client.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(ctx, c.httpClient, req)
}

// statusError builds a NetworkError from a non-2xx response.
// withBody keeps the response text in the message.
func statusError(op string, resp *nethttp.Response, withBody bool) *NetworkError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	netErr := &NetworkError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status}
	if withBody {
		netErr.Body = strings.TrimSpace(string(body))
	}
	return netErr
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// ListFiles returns the catalog, optionally filtered server-side by subject.
func (c *Client) ListFiles(ctx context.Context, subject string) ([]models.FileRecord, error) {
	path := "/files"
	if subject != "" {
		path += "?" + url.Values{"subject": {subject}}.Encode()
	}

	resp, err := c.doRequest(ctx, nethttp.MethodGet, path, nil)
	if err != nil {
		return nil, &NetworkError{Op: "Load files", Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, statusError("Load files", resp, true)
	}

	var files []models.FileRecord
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, fmt.Errorf("failed to decode file list: %w", err)
	}
	if files == nil {
		files = []models.FileRecord{}
	}
	return files, nil
}

// UploadFile sends a multipart form with the parts file, title, subject,
// description and url. The request is not retried.
func (c *Client) UploadFile(ctx context.Context, upload models.UploadRequest, reporter progress.Reporter) (*models.FileRecord, error) {
	switch {
	case strings.TrimSpace(upload.Path) == "":
		return nil, &ValidationError{Field: "file"}
	case strings.TrimSpace(upload.Title) == "":
		return nil, &ValidationError{Field: "title"}
	case strings.TrimSpace(upload.Subject) == "":
		return nil, &ValidationError{Field: "subject"}
	}

	f, err := os.Open(upload.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", upload.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", upload.Path, err)
	}
	if info.Size() > constants.MaxUploadSize {
		c.logger.Warn().Str("file", info.Name()).Int64("size", info.Size()).
			Msg("file exceeds the server's 16MB limit; expect 413")
	}

	// Build everything but the file bytes up front so Content-Length is exact
	var head bytes.Buffer
	mw := multipart.NewWriter(&head)
	for _, field := range []struct{ name, value string }{
		{"title", upload.Title},
		{"subject", upload.Subject},
		{"description", upload.Description},
		{"url", upload.URL},
	} {
		if err := mw.WriteField(field.name, field.value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", field.name, err)
		}
	}
	if _, err := mw.CreateFormFile("file", filepath.Base(upload.Path)); err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	prefix := append([]byte(nil), head.Bytes()...)
	head.Reset()
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}
	suffix := append([]byte(nil), head.Bytes()...)

	rep := progress.OrNoOp(reporter)
	rep.Start(info.Size(), filepath.Base(upload.Path))

	body := io.MultiReader(
		bytes.NewReader(prefix),
		progress.NewProgressReader(f, info.Size(), rep),
		bytes.NewReader(suffix),
	)

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, c.baseURL+"/files", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = int64(len(prefix)) + info.Size() + int64(len(suffix))
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.send(ctx, c.rawClient, req)
	if err != nil {
		netErr := &NetworkError{Op: "Upload", Err: err}
		rep.Error(netErr)
		return nil, netErr
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		netErr := statusError("Upload", resp, true)
		rep.Error(netErr)
		return nil, netErr
	}
	rep.Finish()

	var record models.FileRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &record, nil
}

// UpdateFile changes the editable fields of a record.
func (c *Client) UpdateFile(ctx context.Context, id string, update models.UpdateRequest) (*models.FileRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id"}
	}
	if update.IsEmpty() {
		return nil, &ValidationError{Field: "update"}
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, &ValidationError{Field: "title"}
	}
	if update.Subject != nil && strings.TrimSpace(*update.Subject) == "" {
		return nil, &ValidationError{Field: "subject"}
	}

	resp, err := c.doRequest(ctx, nethttp.MethodPut, "/files/"+url.PathEscape(id), update)
	if err != nil {
		return nil, &NetworkError{Op: "Update", Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, statusError("Update", resp, true)
	}

	var record models.FileRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode update response: %w", err)
	}
	return &record, nil
}

// DeleteFile removes a record and its stored file. Callers confirm first.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id"}
	}

	resp, err := c.doRequest(ctx, nethttp.MethodDelete, "/files/"+url.PathEscape(id), nil)
	if err != nil {
		return &NetworkError{Op: "Delete", Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return statusError("Delete", resp, true)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// DownloadFile fetches the stored file into memory. The blob name comes
// from Content-Disposition when the server sends one.
func (c *Client) DownloadFile(ctx context.Context, id string, reporter progress.Reporter) (*models.Blob, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id"}
	}

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, c.baseURL+"/files/"+url.PathEscape(id)+"/download", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.send(ctx, c.httpClient, req)
	if err != nil {
		return nil, &NetworkError{Op: "Download", Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, statusError("Download", resp, false)
	}

	blob := &models.Blob{
		Name:        filenameFromDisposition(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
	}

	rep := progress.OrNoOp(reporter)
	rep.Start(resp.ContentLength, blob.Name)
	data, err := io.ReadAll(progress.NewProgressReader(resp.Body, resp.ContentLength, rep))
	if err != nil {
		netErr := &NetworkError{Op: "Download", Err: err}
		rep.Error(netErr)
		return nil, netErr
	}
	rep.Finish()

	blob.Data = data
	return blob, nil
}

// filenameFromDisposition extracts filename (or RFC 5987 filename*) from a
// Content-Disposition header. Path elements are stripped.
func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if name == "" {
		return ""
	}
	return filepath.Base(filepath.FromSlash(name))
}

// CheckHealth calls the connectivity probe. Advisory only.
func (c *Client) CheckHealth(ctx context.Context) (*models.TestStatus, error) {
	var status models.TestStatus
	if err := c.getJSON(ctx, "API test", "/test", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Health returns the server's storage summary.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var status models.HealthStatus
	if err := c.getJSON(ctx, "Health check", "/health", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Debug lists stored files next to the catalog for consistency checks.
func (c *Client) Debug(ctx context.Context) (*models.DebugInfo, error) {
	var info models.DebugInfo
	if err := c.getJSON(ctx, "Debug", "/debug/files", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, nethttp.MethodGet, path, nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return statusError(op, resp, true)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", strings.ToLower(op), err)
	}
	return nil
}
