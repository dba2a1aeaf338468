package collyfetcher

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// decodingTransport requests gzip bodies and decodes them itself. The stock
// transport strips Content-Length when it decompresses, which loses the wire
// size the aggregator prefers over the decoded page size.
type decodingTransport struct {
	base http.RoundTripper
}

func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", "gzip")
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(resp.Header.Get("Content-Encoding")), "gzip") {
		return resp, nil
	}
	resp.Body = &gzipBody{raw: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.ContentLength = -1
	// Keeps colly from running its own gzip reader over the decoded stream.
	resp.Uncompressed = true
	return resp, nil
}

// gzipBody opens the gzip stream lazily so empty bodies and aborted requests
// never block inside RoundTrip.
type gzipBody struct {
	raw io.ReadCloser
	zr  *gzip.Reader
	err error
}

func (b *gzipBody) Read(p []byte) (int, error) {
	if b.zr == nil && b.err == nil {
		zr, err := gzip.NewReader(b.raw)
		switch {
		case errors.Is(err, io.EOF):
			b.err = io.EOF
		case err != nil:
			b.err = fmt.Errorf("gzip body: %w", err)
		default:
			b.zr = zr
		}
	}
	if b.err != nil {
		return 0, b.err
	}
	return b.zr.Read(p)
}

func (b *gzipBody) Close() error {
	var err error
	if b.zr != nil {
		err = b.zr.Close()
	}
	return errors.Join(err, b.raw.Close())
}

// newHTTPTransport builds the dialing transport. Proxies are never used: the
// dial guard inspects the address actually dialed, which behind a proxy would
// be the proxy rather than the audited host.
func newHTTPTransport(guardPrivate bool) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if guardPrivate {
		dialer.Control = guardDial
	}
	return &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		DisableCompression:    true,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
