package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout - таймаут подключения, чтения и записи по умолчанию.
const DefaultTimeout = 60 * time.Second

var (
	ErrInvalidBaseURL = errors.New("invalid backend base url")
	ErrInvalidID      = errors.New("invalid id")
	ErrReadTimeout    = errors.New("response read timeout")
)

// StatusError - сервер ответил кодом вне диапазона 2xx.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// IsNotFound сообщает, что сервер вернул 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Config содержит параметры HTTP-клиента бэкенда.
type Config struct {
	BaseURL        string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// LogBodies включает журнал полных тел запросов и ответов.
	LogBodies bool
	Logger    *log.Logger
}

// HTTPClient ходит в REST API бэкенда. Реализует QuoteGateway и ServiceGateway.
type HTTPClient struct {
	baseURL     *url.URL
	httpClient  *http.Client
	readTimeout time.Duration
	logger      *log.Logger
}

// NewHTTPClient создаёт HTTP-клиент. Базовый URL всегда заканчивается слешем.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	connect := orDefault(cfg.ConnectTimeout)
	read := orDefault(cfg.ReadTimeout)
	write := orDefault(cfg.WriteTimeout)

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connect,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: read,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   4,
	}

	var rt http.RoundTripper = transport
	if cfg.LogBodies {
		rt = &loggingTransport{next: transport, logger: logger}
	}

	return &HTTPClient{
		baseURL: base,
		httpClient: &http.Client{
			Transport: rt,
			// Общий предел запроса. Чтение тела ограничено отдельно в do().
			Timeout: connect + read + write,
		},
		readTimeout: read,
		logger:      logger,
	}, nil
}

// BaseURL возвращает нормализованный базовый адрес.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL.String()
}

// do выполняет запрос и возвращает тело ответа для кодов 2xx.
// Пустое тело и "null" возвращаются как nil.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, in any) ([]byte, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%s: build url: %w", op, err)
	}
	u := c.baseURL.ResolveReference(ref)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	// Заголовки ограничены ResponseHeaderTimeout, тело - тем же таймаутом чтения.
	readTimer := time.AfterFunc(c.readTimeout, cancel)
	data, err := io.ReadAll(resp.Body)
	if !readTimer.Stop() {
		return nil, fmt.Errorf("%s: read response: %w", op, ErrReadTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	return data, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidBaseURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBaseURL, raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func orDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}

// itemPath строит путь элемента коллекции. Пустой id, "." и ".." отклоняются,
// иначе ResolveReference увёл бы запрос на другой адрес.
func itemPath(collection, id string, action ...string) (string, error) {
	switch strings.TrimSpace(id) {
	case "", ".", "..":
		return "", fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	p := collection + url.PathEscape(id) + "/"
	for _, a := range action {
		p += a + "/"
	}
	return p, nil
}
