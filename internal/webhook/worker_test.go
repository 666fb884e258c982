package webhook

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shenikar/mangrove_watch/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestWorker(url string) *WebhookWorker {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	cfg := &config.Config{
		WebhookURL:        url,
		WebhookSecret:     "s3cret",
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 3,
		WebhookBaseDelay:  time.Millisecond,
	}
	return NewWebhookWorker(nil, logger, cfg)
}

func TestProcessWebhookEvent_SignsPayload(t *testing.T) {
	payload := `{"type":"points.awarded","amount":50}`
	var gotSignature, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Webhook-Signature")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	worker := newTestWorker(srv.URL)
	ok := worker.processWebhookEvent(context.Background(), WebhookEvent{Type: EventPointsAwarded}, payload)

	assert.True(t, ok)
	assert.Equal(t, payload, gotBody)
	assert.Equal(t, generateHMACSHA256(payload, "s3cret"), gotSignature)
}

func TestProcessWebhookEvent_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	worker := newTestWorker(srv.URL)
	ok := worker.processWebhookEvent(context.Background(), WebhookEvent{Type: EventIncidentCreated}, `{}`)

	assert.True(t, ok)
	assert.Equal(t, int32(3), calls.Load())
}

func TestProcessWebhookEvent_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	worker := newTestWorker(srv.URL)
	ok := worker.processWebhookEvent(context.Background(), WebhookEvent{Type: EventIncidentDeleted}, `{}`)

	assert.False(t, ok)
	assert.Equal(t, int32(3), calls.Load())
}

func TestProcessWebhookEvent_NoURL(t *testing.T) {
	worker := newTestWorker("")
	assert.False(t, worker.processWebhookEvent(context.Background(), WebhookEvent{}, `{}`))
}

func TestGenerateHMACSHA256(t *testing.T) {
	sig := generateHMACSHA256("data", "key")
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, generateHMACSHA256("data", "key"))
	assert.NotEqual(t, sig, generateHMACSHA256("data", "other"))
}
