package requestutil

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/carlmjohnson/requests"
	"github.com/go-logr/logr"
)

const (
	HeaderLastModified    = "Last-Modified"
	HeaderETag            = "ETag"
	HeaderIfModifiedSince = "If-Modified-Since"
	HeaderIfNoneMatch     = "If-None-Match"
)

// Validators are the cache tokens returned by a server
// for a previous response. Empty values are not sent.
type Validators struct {
	LastModified string
	ETag         string
}

type Response struct {
	// NotModified is set when the server confirmed that
	// the previously fetched content is still current.
	NotModified bool
	Data        []byte
	Validators  Validators
}

// StatusError is returned when the server responds with
// something other than a success or "not modified".
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected response code: %d", e.URL, e.StatusCode)
}

// Fetch downloads the content at target into memory, attaching
// any available validators as conditional request headers.
func Fetch(ctx context.Context, client *http.Client, target string, v Validators) (*Response, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("url", target)
	if client == nil {
		client = http.DefaultClient
	}

	rb := requests.URL(target).Client(client)
	if v.LastModified != "" {
		log.V(4).Info("adding validator", "header", HeaderIfModifiedSince, "value", v.LastModified)
		rb.Header(HeaderIfModifiedSince, v.LastModified)
	}
	if v.ETag != "" {
		log.V(4).Info("adding validator", "header", HeaderIfNoneMatch, "value", v.ETag)
		rb.Header(HeaderIfNoneMatch, v.ETag)
	}

	out := &Response{}
	var buf bytes.Buffer
	err := rb.
		AddValidator(func(resp *http.Response) error {
			log.V(2).Info("http request completed", "code", resp.StatusCode)
			if resp.StatusCode == http.StatusNotModified || (resp.StatusCode >= 200 && resp.StatusCode <= 299) {
				return nil
			}
			return &StatusError{URL: target, StatusCode: resp.StatusCode}
		}).
		Handle(func(resp *http.Response) error {
			if resp.StatusCode == http.StatusNotModified {
				out.NotModified = true
				return nil
			}
			out.Validators = Validators{
				LastModified: resp.Header.Get(HeaderLastModified),
				ETag:         resp.Header.Get(HeaderETag),
			}
			_, err := buf.ReadFrom(resp.Body)
			return err
		}).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	out.Data = buf.Bytes()
	return out, nil
}
