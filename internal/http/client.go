// Package http builds the HTTP clients used for the notes API and for
// object-storage download targets.
package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/studyvault/notesdash/internal/config"
	"github.com/studyvault/notesdash/internal/constants"
)

// NewTransferClient returns a client tuned for pushing downloaded files to
// S3 or Azure Blob storage. It shares proxy handling with ConfigureHTTPClient.
//
// HTTP/2 is enabled unless DISABLE_HTTP2=true is set or a proxy is active
// (FORCE_HTTP2=true overrides the proxy check).
func NewTransferClient(cfg *config.Config) (*nethttp.Client, error) {
	var baseClient *nethttp.Client
	var err error

	if cfg != nil {
		baseClient, err = ConfigureHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
	} else {
		baseClient = &nethttp.Client{Transport: nethttp.DefaultTransport.(*nethttp.Transport).Clone()}
	}

	tr, ok := baseClient.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM wraps the transport in ntlmssp.Negotiator; use it as-is
		return baseClient, nil
	}

	tr.MaxIdleConns = 128
	tr.MaxIdleConnsPerHost = 32
	tr.MaxConnsPerHost = 32
	tr.IdleConnTimeout = constants.HTTPIdleConnTimeout
	tr.TLSHandshakeTimeout = constants.HTTPTLSHandshakeTimeout
	tr.ExpectContinueTimeout = constants.HTTPExpectContinueTimeout

	// Notes are mostly PDFs and images; compression buys nothing
	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	if os.Getenv("DISABLE_HTTP2") == "true" {
		disableHTTP2(tr)
	}

	// Proxies often break HTTP/2 multiplexing mid-transfer
	if proxyActive(cfg) && os.Getenv("FORCE_HTTP2") != "true" {
		disableHTTP2(tr)
	}

	baseClient.Transport = tr
	baseClient.Timeout = 0
	return baseClient, nil
}

func disableHTTP2(tr *nethttp.Transport) {
	tr.ForceAttemptHTTP2 = false
	tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
}

// proxyActive trusts the configured mode first and only consults the
// environment for "system" mode or when no config is given.
func proxyActive(cfg *config.Config) bool {
	envProxy := os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
		os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	if cfg == nil {
		return envProxy
	}
	switch cfg.ProxyMode {
	case "no-proxy", "":
		return false
	case "system":
		return envProxy
	default:
		return true
	}
}
