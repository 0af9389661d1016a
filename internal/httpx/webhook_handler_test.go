package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vaanya-sarees/storefront/internal/payments"
)

type stubProcessor struct {
	events []payments.Event
	err    error
}

func (s *stubProcessor) Process(ctx context.Context, ev payments.Event, traceID string) error {
	s.events = append(s.events, ev)
	return s.err
}

func postWebhook(t *testing.T, h *WebhookHandler, body, sig string) *httptest.ResponseRecorder {
	t.Helper()
	r := NewRouter()
	h.Register(r)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(body))
	if sig != "" {
		req.Header.Set(payments.SignatureHeader, sig)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const capturedBody = `{"event_id":"evt_1","event_type":"payment.captured","payload":{"order_id":"ord_1","payment_id":"pay_1","amount_paise":549900,"currency":"INR"}}`

func TestWebhookAcceptsSignedEvent(t *testing.T) {
	secret := []byte("whsec")
	proc := &stubProcessor{}
	h := &WebhookHandler{Secret: secret, Processor: proc}

	rec := postWebhook(t, h, capturedBody, payments.Sign(secret, []byte(capturedBody)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(proc.events) != 1 {
		t.Fatalf("expected one processed event, got %d", len(proc.events))
	}
	if proc.events[0].Payload.AmountPaise != 549900 {
		t.Fatalf("unexpected event: %+v", proc.events[0])
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	proc := &stubProcessor{}
	h := &WebhookHandler{Secret: []byte("whsec"), Processor: proc}

	for _, sig := range []string{"", "deadbeef", payments.Sign([]byte("wrong-secret"), []byte(capturedBody))} {
		rec := postWebhook(t, h, capturedBody, sig)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("sig %q: expected 401, got %d", sig, rec.Code)
		}
	}
	if len(proc.events) != 0 {
		t.Fatalf("processor must not run on bad signatures, got %d calls", len(proc.events))
	}
}

func TestWebhookRejectsMalformedEvent(t *testing.T) {
	secret := []byte("whsec")
	proc := &stubProcessor{}
	h := &WebhookHandler{Secret: secret, Processor: proc}

	body := `{"event_type":"payment.captured","payload":{}}`
	rec := postWebhook(t, h, body, payments.Sign(secret, []byte(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(proc.events) != 0 {
		t.Fatal("processor must not run on malformed events")
	}
}

func TestWebhookUnknownOrderIs404(t *testing.T) {
	secret := []byte("whsec")
	proc := &stubProcessor{err: payments.ErrOrderNotFound}
	h := &WebhookHandler{Secret: secret, Processor: proc}

	rec := postWebhook(t, h, capturedBody, payments.Sign(secret, []byte(capturedBody)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
