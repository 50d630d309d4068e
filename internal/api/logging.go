package api

import (
	"log"
	"net/http"
	"net/http/httputil"
	"time"
)

// loggingTransport пишет в журнал полные запросы и ответы.
// Используется только вне production.
type loggingTransport struct {
	next   http.RoundTripper
	logger *log.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if dump, err := httputil.DumpRequestOut(req, true); err == nil {
		t.logger.Printf("--> %s %s\n%s", req.Method, req.URL, dump)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.Printf("<-- HTTP FAILED %s %s: %v", req.Method, req.URL, err)
		return nil, err
	}

	if dump, err := httputil.DumpResponse(resp, true); err == nil {
		t.logger.Printf("<-- %d %s (%s)\n%s", resp.StatusCode, req.URL, time.Since(start).Round(time.Millisecond), dump)
	}
	return resp, nil
}
