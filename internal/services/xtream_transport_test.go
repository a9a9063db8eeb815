package services_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/services"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
	tu "github.com/IISonGokuII/DjoudiniPlayer/internal/testing"
)

func TestXtreamTransportFailures(t *testing.T) {
	creds := services.Credentials{
		ServerURL: "http://provider.example",
		Username:  "user",
		Password:  "pass",
	}

	t.Run("Round trip error", func(t *testing.T) {
		client := &http.Client{
			Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused")),
		}
		x := services.NewXtreamService(client, 0)

		_, err := x.Authenticate(context.Background(), creds)
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("Body read failure", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       &tu.FCloser{},
		}
		client := &http.Client{
			Transport: tu.NewMockRoundTripper(resp, nil),
		}
		x := services.NewXtreamService(client, 0)

		_, err := x.Authenticate(context.Background(), creds)
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})
}
