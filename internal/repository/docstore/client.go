// Package docstore implements the repositories on top of a json-server style
// REST document store: one collection per resource, equality filters as query
// parameters, and POST/PATCH for writes.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/utafrali/plantstore/pkg/errors"
	"github.com/utafrali/plantstore/pkg/httpclient"
)

const serviceName = "docstore"

// Client performs JSON requests against the document store.
type Client struct {
	baseURL string
	doer    httpclient.Doer
}

// NewClient creates a client for the store at baseURL. doer is usually an
// httpclient.CircuitBreakerClient wrapping an httpclient.Client.
func NewClient(baseURL string, doer httpclient.Doer) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), doer: doer}
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// get decodes the document at path into out. A 404 is returned as
// apperrors.ErrNotFound; other failures match apperrors.ErrQuery.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	err := httpclient.DoJSON(ctx, c.doer, http.MethodGet, c.url(path, query), nil, out, serviceName)
	if err == nil || errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return apperrors.Query(op, err)
}

// send writes in with method and decodes the stored document into out.
// Failures match apperrors.ErrWrite except a 404, which is ErrNotFound.
func (c *Client) send(ctx context.Context, op, method, path string, in, out any) error {
	err := httpclient.DoJSON(ctx, c.doer, method, c.url(path, nil), in, out, serviceName)
	if err == nil || errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return apperrors.Write(op, err)
}

// Ping checks that the store answers. It is used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url("/products", url.Values{"_limit": {"1"}}), nil)
	if err != nil {
		return err
	}
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", serviceName, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("ping %s: status %d", serviceName, resp.StatusCode)
	}
	return nil
}

// flexID accepts both JSON strings and numbers. Products seeded by hand in a
// json-server database usually carry numeric ids.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("decode id %s: %w", b, err)
	}
	*f = flexID(n.String())
	return nil
}
