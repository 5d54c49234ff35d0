package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/an1noX/techpinoyv3-sub002/common/ws"
	"github.com/an1noX/techpinoyv3-sub002/server/storage"
)

func TestEvents_StreamsMutations(t *testing.T) {
	t.Parallel()

	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	hub := ws.NewHub()
	defer hub.Stop()

	api, err := NewAPI(store, hub, APIOptions{})
	if err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/events", nil, 5*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var msg ws.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if msg.Type != ws.MessageTypeHello || msg.Data["subscriber"] == "" {
		t.Fatalf("first message = %+v", msg)
	}

	resp, err := http.Post(srv.URL+"/api/v1/printers", "application/json", strings.NewReader(`{"id":"p-ws","make":"HP","model":"M404"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create printer: %d", resp.StatusCode)
	}

	msg = ws.Message{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if msg.Type != ws.MessageTypePrinterCreated {
		t.Fatalf("event type = %q", msg.Type)
	}
	printer, _ := msg.Data["printer"].(map[string]interface{})
	if printer["id"] != "p-ws" {
		t.Errorf("event payload = %+v", msg.Data)
	}
}

func TestEvents_DisabledWithoutHub(t *testing.T) {
	t.Parallel()

	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	api, _ := NewAPI(store, nil, APIOptions{})
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	if w.Code != http.StatusNotImplemented {
		t.Errorf("code = %d", w.Code)
	}
}
