// Package api holds the typed bindings for the StudyBridge backend HTTP API.
// The backend owns every wire shape here; the client adapts but never
// redefines them.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/studybridge/client-go/internal/errors"
)

const maxErrorBodyBytes = 2048

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// get issues a GET and decodes a 2xx JSON body into out (out may be nil).
// Returns the status code so callers can map domain-meaningful statuses, with
// err set for everything that is not 2xx and not one of wantStatus.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any, wantStatus ...int) (int, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, out, wantStatus...)
}

func (c *Client) post(ctx context.Context, path string, query url.Values, body any, wantStatus ...int) (int, error) {
	return c.do(ctx, http.MethodPost, path, query, body, nil, wantStatus...)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, wantStatus ...int) (int, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, apperrors.Wrap(apperrors.ErrCodeInternal, "encode request body", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeInternal, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, apperrors.Transient(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("api call")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return resp.StatusCode, apperrors.Transient(fmt.Sprintf("decode %s response", path), err)
			}
		}
		return resp.StatusCode, nil
	}

	for _, s := range wantStatus {
		if resp.StatusCode == s {
			return resp.StatusCode, nil
		}
	}

	return resp.StatusCode, c.statusError(path, resp)
}

// statusError maps a non-2xx response to the client error taxonomy. Statuses
// a caller treats as domain state (404 on conversation search, for one) must
// be claimed via wantStatus before this runs.
func (c *Client) statusError(path string, resp *http.Response) error {
	detail := readErrorBody(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.Unauthorized(detail)
	case http.StatusNotFound:
		return apperrors.NotFound(path)
	case http.StatusConflict:
		return apperrors.AlreadyExists(detail)
	case http.StatusBadRequest:
		return apperrors.ValidationError(detail)
	default:
		return apperrors.Transient(fmt.Sprintf("%s returned %d: %s", path, resp.StatusCode, detail), nil)
	}
}

func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil || len(data) == 0 {
		return "request failed"
	}
	return strings.TrimSpace(string(data))
}
