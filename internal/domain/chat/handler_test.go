package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenai/companion-api/internal/middleware"
)

func newChatRouter(svc *Service, userID uuid.UUID) http.Handler {
	auth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), userID, "user")))
		})
	}
	r := chi.NewRouter()
	r.Mount("/api/v1/chat", NewHandler(svc).Routes(auth))
	return r
}

func postMessage(t *testing.T, h http.Handler, agentID, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"content": content})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/agents/"+agentID+"/messages", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSendMessageEndpoint(t *testing.T) {
	svc := NewService(&stubRepo{}, &stubLLM{reply: "hey"}, &stubBiller{balance: 10}, nil)
	router := newChatRouter(svc, uuid.New())

	if w := postMessage(t, router, "luna", "hello"); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if w := postMessage(t, router, "ghost", "hello"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := postMessage(t, router, "luna", ""); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestSendMessageEndpointPaymentRequired(t *testing.T) {
	svc := NewService(&stubRepo{}, &stubLLM{reply: "hey"}, &stubBiller{balance: 0}, nil)
	router := newChatRouter(svc, uuid.New())

	w := postMessage(t, router, "luna", "hello")
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", w.Code)
	}

	var body struct {
		Error struct {
			Code    string                 `json:"code"`
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "INSUFFICIENT_FUNDS" || body.Error.Details["required"].(float64) != 1 {
		t.Fatalf("unexpected error body: %+v", body.Error)
	}
}

func TestListAgentsEndpoint(t *testing.T) {
	router := newChatRouter(NewService(&stubRepo{}, &stubLLM{}, &stubBiller{}, nil), uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/agents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
