package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// StepTypeHTTP — тип шага HTTP-запроса.
	StepTypeHTTP = "http"

	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 1 << 20
)

// Ключи конфигурации HTTP шага.
const (
	configMethod     = "method"
	configURL        = "url"
	configHeaders    = "headers"
	configBody       = "body"
	configTimeoutSec = "timeout_sec"
)

// HTTPStep отправляет HTTP-запрос: сбросить кеш CDN-эмулятора,
// дёрнуть webhook превью, прогреть страницу после сборки.
//
// Конфигурация:
//
//	method  = "POST"
//	url     = "http://localhost:9000/hooks/{{ .Task }}"
//	headers = { Authorization = "Bearer {{ .Env.HOOK_TOKEN }}" }
//	body    = { event = "built" }
//	timeout_sec = 10
//
// Ответ со статусом >= 400 считается ошибкой (*HTTPError).
// Outputs: status_code, body.
type HTTPStep struct {
	client *http.Client
}

// NewHTTPStep создаёт новый HTTPStep.
func NewHTTPStep() *HTTPStep {
	return &HTTPStep{
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Type возвращает тип шага.
func (s *HTTPStep) Type() string {
	return StepTypeHTTP
}

// Execute выполняет HTTP запрос.
func (s *HTTPStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	data := NewTemplateData(req)

	url, err := Render(GetConfigString(req.Config, configURL), data)
	if err != nil {
		return nil, err
	}
	if url == "" {
		return nil, fmt.Errorf("%w: %s: url is required", ErrInvalidConfig, StepTypeHTTP)
	}

	method := strings.ToUpper(GetConfigString(req.Config, configMethod))
	if method == "" {
		method = http.MethodGet
	}

	timeout := defaultHTTPTimeout
	if sec := GetConfigInt(req.Config, configTimeoutSec); sec > 0 {
		timeout = time.Duration(sec) * time.Second
	}
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	headers := GetConfigMapString(req.Config, configHeaders)
	if headers == nil {
		headers = make(map[string]string)
	}
	if raw, ok := req.Config[configBody]; ok && raw != nil {
		b, err := serializeBody(raw)
		if err != nil {
			return nil, fmt.Errorf("serialize body: %w", err)
		}
		body = bytes.NewReader(b)
		if _, ok := headers["Content-Type"]; !ok {
			headers["Content-Type"] = "application/json"
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, value := range headers {
		rendered, err := Render(value, data)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set(key, rendered)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(respBody),
		}
	}

	req.Logger.Debug("http step", "method", method, "url", url, "status", resp.StatusCode)
	return NewResponse(map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(respBody),
	}), nil
}

func serializeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

// HTTPError — ответ с кодом ошибки.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error реализует интерфейс error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s", e.Status)
}
