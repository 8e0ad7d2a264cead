package es

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
)

type Options struct {
	URL      string
	User     string
	Password string
	// Transport overrides the HTTP transport, used by tests.
	Transport http.RoundTripper
}

func NewClient(ctx context.Context, opts Options, l *slog.Logger) (*elasticsearch.Client, error) {
	l = l.With("component", "elasticsearch", "url", opts.URL)
	l.Info("es_connecting")

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{opts.URL},
		Username:  opts.User,
		Password:  opts.Password,
		Transport: opts.Transport,
	})
	if err != nil {
		l.Error("es_connect_error", "error", err)
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		l.Error("es_connect_error", "error", err)
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		l.Error("es_connect_error", "status", res.StatusCode, "body", string(body))
		return nil, fmt.Errorf("es: info returned %s", res.Status())
	}

	l.Info("es_connected")
	return client, nil
}
