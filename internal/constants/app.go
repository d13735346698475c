package constants

import (
	"time"
)

// API layout
const (
	// APIPathPrefix is appended to the configured origin to form the API base URL.
	APIPathPrefix = "/api"

	// DefaultAPIBaseURL is the origin used when neither config nor flags set one.
	DefaultAPIBaseURL = "http://127.0.0.1:5000"

	// PlaceholderToken is the credential the notes server accepts out of the box.
	// Real token issuance lives on the server side.
	PlaceholderToken = "dummy-token"

	// MaxUploadSize mirrors the server's request limit (16 MB).
	// Larger uploads are rejected by the server with 413.
	MaxUploadSize = 16 * 1024 * 1024
)

// AllowedExtensions lists the file types the server accepts for upload.
var AllowedExtensions = []string{"pdf", "doc", "docx", "txt", "ppt", "pptx", "jpg", "jpeg", "png"}

// Toast lifecycle
const (
	// ToastFadeInDelay - time between creating a toast and it becoming visible
	ToastFadeInDelay = 100 * time.Millisecond

	// ToastVisibleDuration - time after creation at which the toast starts fading
	ToastVisibleDuration = 4 * time.Second

	// ToastFadeOutDuration - fade-out time before the toast is removed
	ToastFadeOutDuration = 300 * time.Millisecond

	// UploadSuccessBannerDuration - how long the upload-success banner stays up
	UploadSuccessBannerDuration = 3 * time.Second
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - maximum buffer size for high-throughput scenarios
	EventBusMaxBuffer = 2048
)

// API pacing
const (
	// APIRatePerSec - default client-side request rate against the notes server.
	// A single Flask instance serves everyone, so keep refresh storms in check.
	APIRatePerSec = 10.0

	// APIBurstCapacity - requests allowed back-to-back before pacing kicks in
	APIBurstCapacity = 20.0

	// DefaultMaxRetries - retries for idempotent requests (0 = fail on first error)
	DefaultMaxRetries = 0

	// RetryWaitMin / RetryWaitMax bound the backoff when retries are enabled
	RetryWaitMin = 500 * time.Millisecond
	RetryWaitMax = 10 * time.Second
)

// Downloads
const (
	// DefaultMaxConcurrent - default parallel downloads for `files download`
	DefaultMaxConcurrent = 3

	// MinMaxConcurrent / MaxMaxConcurrent bound the --max-concurrent flag
	MinMaxConcurrent = 1
	MaxMaxConcurrent = 8
)

// HTTP client configuration
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (30 seconds)
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// ProxyWarmupTimeout - budget for the optional proxy warmup request
	ProxyWarmupTimeout = 15 * time.Second
)

// UI
const (
	// TUIToastTickInterval - re-render cadence while toasts are animating
	TUIToastTickInterval = 100 * time.Millisecond

	// TableDateLayout - short date shown in the files table
	TableDateLayout = "01/02/2006"
)
