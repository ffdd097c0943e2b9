package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type inbound struct {
	userID string
	text   string
}

type fakeFlow struct {
	handled chan inbound
	block   chan struct{}
}

func newFakeFlow() *fakeFlow {
	return &fakeFlow{handled: make(chan inbound, 16)}
}

func (f *fakeFlow) HandleMessage(_ context.Context, userID, text string) error {
	if f.block != nil {
		<-f.block
	}
	f.handled <- inbound{userID: userID, text: text}
	return nil
}

func newTestHandler(t *testing.T, flow Flow) *Handler {
	t.Helper()
	h, err := NewHandler(Config{VerifyToken: "verify-me"}, flow)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return h
}

func TestVerifyHandshake(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, newFakeFlow())
	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=challenge-42")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	buf := make([]byte, 64)
	n, _ := resp.Body.Read(buf)
	if got := string(buf[:n]); got != "challenge-42" {
		t.Fatalf("body = %q, want the echoed challenge", got)
	}
}

func TestVerifyHandshakeWrongToken(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, newFakeFlow())
	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=x")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

const inboundPayload = `{
	"object": "whatsapp_business_account",
	"entry": [{
		"changes": [{
			"value": {
				"messages": [{"from": "27821234567", "text": {"body": "hello"}}]
			}
		}]
	}]
}`

func TestReceiveDispatchesToFlow(t *testing.T) {
	t.Parallel()

	flow := newFakeFlow()
	h := newTestHandler(t, flow)
	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/webhook", "application/json", strings.NewReader(inboundPayload))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	select {
	case got := <-flow.handled:
		if got.userID != "27821234567" || got.text != "hello" {
			t.Fatalf("handled = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("flow was never invoked")
	}
}

func TestReceiveAcksBeforeProcessingCompletes(t *testing.T) {
	t.Parallel()

	flow := newFakeFlow()
	flow.block = make(chan struct{})
	h := newTestHandler(t, flow)
	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)

	// The flow is wedged on a slow ledger; the transport ack must not wait.
	resp, err := http.Post(server.URL+"/webhook", "application/json", strings.NewReader(inboundPayload))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 before processing finishes", resp.StatusCode)
	}

	close(flow.block)
	select {
	case <-flow.handled:
	case <-time.After(2 * time.Second):
		t.Fatal("flow was never invoked after unblocking")
	}
}

func TestReceiveMalformedBody(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, newFakeFlow())
	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/webhook", "application/json", strings.NewReader("{nope"))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestReceiveMissingObject(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, newFakeFlow())
	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/webhook", "application/json", strings.NewReader(`{"entry":[]}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestReceiveStatusOnlyEventIsAcked(t *testing.T) {
	t.Parallel()

	flow := newFakeFlow()
	h := newTestHandler(t, flow)
	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)

	// Delivery-status callbacks carry no messages array.
	payload := `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{}}]}]}`
	resp, err := http.Post(server.URL+"/webhook", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	select {
	case got := <-flow.handled:
		t.Fatalf("flow invoked unexpectedly: %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}
