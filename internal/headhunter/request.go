package headhunter

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	contentEncoding = "gzip"
	// Error bodies are small; anything bigger is not worth reading.
	maxErrorBody = 64 << 10
)

// Item is one raw element of a list endpoint.
type Item = map[string]any

// page is one page of a list endpoint.
type page struct {
	Items   []Item `json:"items"`
	Found   int    `json:"found"`
	Pages   int    `json:"pages"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// StatusError is returned for any answer other than 200. hh.ru explains
// failures in an errors array; those end up in Reasons.
type StatusError struct {
	StatusCode int
	Status     string
	Reasons    []string
}

func (e *StatusError) Error() string {
	if len(e.Reasons) == 0 {
		return "bad status: " + e.Status
	}
	return fmt.Sprintf("bad status: %s (%s)", e.Status, strings.Join(e.Reasons, ", "))
}

// GetItems walks the pages of a list endpoint and returns their items.
// maxPages limits the walk; zero means every page.
func (c *Client) GetItems(ctx context.Context, endpoint string, q url.Values, maxPages int) ([]Item, error) {
	var items []Item

	for n := 0; ; n++ {
		var p page
		if err := c.getJSON(ctx, endpoint, withPage(q, n), &p); err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		items = append(items, p.Items...)

		if n == 0 {
			c.logger.Debug("got response from HH.ru", zap.Int("pages", p.Pages), zap.Int("found", p.Found))
		}
		if n >= p.Pages-1 {
			return items, nil
		}
		if maxPages > 0 && n+1 >= maxPages {
			c.logger.Debug("page limit reached", zap.Int("max_pages", maxPages), zap.Int("pages", p.Pages))
			return items, nil
		}
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	if len(q) > 0 {
		req.URL.RawQuery = q.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, closer, err := decodeBody(resp)
	if err != nil {
		return err
	}
	defer closer()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp, body)
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
}

func statusError(resp *http.Response, body io.Reader) error {
	e := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}

	var payload struct {
		Description string `json:"description"`
		Errors      []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&payload); err != nil {
		return e
	}

	for _, item := range payload.Errors {
		reason := item.Type
		if item.Value != "" {
			reason += ": " + item.Value
		}
		e.Reasons = append(e.Reasons, reason)
	}
	if payload.Description != "" {
		e.Reasons = append(e.Reasons, payload.Description)
	}
	return e
}

func decodeBody(resp *http.Response) (io.Reader, func(), error) {
	if resp.Header.Get("Content-Encoding") != contentEncoding {
		return resp.Body, func() {}, nil
	}
	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return gz, func() { _ = gz.Close() }, nil
}

// withPage copies q and sets the page parameter.
func withPage(q url.Values, n int) url.Values {
	out := make(url.Values, len(q)+1)
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	out.Set("page", strconv.Itoa(n))
	return out
}
