package mailer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() Message {
	return Message{
		To:          mail.Address{Name: "Jane", Address: "jane@example.com"},
		Subject:     "Payment confirmed",
		TextContent: "Your payment has been confirmed!",
		HTMLContent: "<p>Your payment has been confirmed!</p>",
	}
}

func TestSendGridMailerSend(t *testing.T) {
	m := NewSendGridMailer("key", "Siliya Electrical", "no-reply@siliya.test")
	var captured rest.Request
	m.send = func(_ context.Context, req rest.Request) (*rest.Response, error) {
		captured = req
		return &rest.Response{StatusCode: 202}, nil
	}

	require.NoError(t, m.Send(context.Background(), testMessage()))
	assert.Equal(t, rest.Post, captured.Method)
	assert.True(t, strings.HasSuffix(captured.BaseURL, "/v3/mail/send"))
	assert.Equal(t, "Bearer key", captured.Headers["Authorization"])

	body := string(captured.Body)
	assert.Contains(t, body, "jane@example.com")
	assert.Contains(t, body, "[Siliya Electrical] Payment confirmed")
	assert.Contains(t, body, "text/plain")
	assert.Contains(t, body, "text/html")
}

func TestSendGridMailerErrorStatus(t *testing.T) {
	m := NewSendGridMailer("key", "Shop", "no-reply@shop.test")
	m.send = func(_ context.Context, req rest.Request) (*rest.Response, error) {
		return &rest.Response{StatusCode: 401, Body: "unauthorized"}, nil
	}

	err := m.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestSendGridMailerTransportError(t *testing.T) {
	m := NewSendGridMailer("key", "Shop", "no-reply@shop.test")
	m.send = func(_ context.Context, req rest.Request) (*rest.Response, error) {
		return nil, errors.New("dial tcp: timeout")
	}

	err := m.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sendgrid: request failed")
}

func TestSendGridMailerHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	m := NewSendGridMailer("key", "Shop", "no-reply@shop.test")
	m.host = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Send(ctx, testMessage()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(3 * time.Second):
		t.Fatal("Send did not return after the context deadline")
	}
}

func TestSendGridMailerRejectsEmptyMessage(t *testing.T) {
	m := NewSendGridMailer("key", "Shop", "no-reply@shop.test")
	m.send = func(_ context.Context, req rest.Request) (*rest.Response, error) {
		t.Fatal("send should not be called")
		return nil, nil
	}
	require.Error(t, m.Send(context.Background(), Message{Subject: "x"}))
}

func TestLogMailerRecords(t *testing.T) {
	m := NewLogMailer(nil)
	require.NoError(t, m.Send(context.Background(), testMessage()))
	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Payment confirmed", sent[0].Subject)
}
