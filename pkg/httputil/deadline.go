package httputil

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Doer is satisfied by *http.Client and DeadlineClient.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DeadlineClient bounds every request with its own deadline. The deadline
// covers reading the response body, so it is released when the body closes.
type DeadlineClient struct {
	client  *http.Client
	timeout time.Duration
}

func NewDeadlineClient(client *http.Client, timeout time.Duration) *DeadlineClient {
	if client == nil {
		client = http.DefaultClient
	}

	return &DeadlineClient{
		client:  client,
		timeout: timeout,
	}
}

func (c *DeadlineClient) Timeout() time.Duration {
	return c.timeout
}

func (c *DeadlineClient) Do(req *http.Request) (*http.Response, error) {
	if c.timeout <= 0 {
		return c.client.Do(req)
	}

	ctx, cancel := context.WithTimeout(req.Context(), c.timeout)
	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
