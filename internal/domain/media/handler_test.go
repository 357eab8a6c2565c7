package media

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

func newMediaRouter(svc *Service) http.Handler {
	userID := uuid.New()
	auth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), userID, "user")))
		})
	}
	r := chi.NewRouter()
	r.Mount("/api/v1/media", NewHandler(svc).Routes(auth))
	return r
}

func doMediaRequest(h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestMediaEndpoints(t *testing.T) {
	gen := &stubGenerator{audio: []byte("ID3"), image: testPNG(t, 16, 16)}
	svc, _ := newTestService(t, gen, newMemStorage(), &stubBiller{balance: 12})
	router := newMediaRouter(svc)

	if w := doMediaRequest(router, http.MethodPost, "/api/v1/media/voices", map[string]string{"text": "hi"}); w.Code != http.StatusCreated {
		t.Fatalf("voice: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	// 7 coins left, an image costs 10.
	if w := doMediaRequest(router, http.MethodPost, "/api/v1/media/images", map[string]string{"prompt": "cat"}); w.Code != http.StatusPaymentRequired {
		t.Fatalf("image: expected 402, got %d", w.Code)
	}
	if w := doMediaRequest(router, http.MethodPost, "/api/v1/media/videos", map[string]interface{}{"prompt": "cat", "seconds": 99}); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("video: expected 422, got %d", w.Code)
	}
	if w := doMediaRequest(router, http.MethodGet, "/api/v1/media?kind=voice", nil); w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	if w := doMediaRequest(router, http.MethodGet, "/api/v1/media?kind=hologram", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("list: expected 400, got %d", w.Code)
	}
}
