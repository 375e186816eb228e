package calendar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/emersion/go-webdav"
)

// basicAuthTransport adds Basic Auth and a User-Agent to each request.
type basicAuthTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.Username != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}
	req.Header.Set("User-Agent", "cetldigest/1.0")
	return t.Transport.RoundTrip(req)
}

// Publisher uploads the .ics feed to a WebDAV collection.
type Publisher struct {
	client   *webdav.Client
	endpoint string
	logger   *slog.Logger
}

// NewPublisher creates a Publisher for the collection at endpoint.
func NewPublisher(logger *slog.Logger, endpoint, username, password string) (*Publisher, error) {
	httpClient := &http.Client{Transport: &basicAuthTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}}

	client, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}
	return &Publisher{client: client, endpoint: endpoint, logger: logger}, nil
}

// Publish writes data as name inside the collection, replacing any previous file.
func (p *Publisher) Publish(ctx context.Context, name string, data []byte) error {
	p.logger.Debug("Publishing calendar feed", "endpoint", p.endpoint, "name", name, "bytes", len(data))

	w, err := p.client.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create %s on WebDAV server: %w", name, err)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}

	p.logger.Info("Successfully published calendar feed", "name", name)
	return nil
}
