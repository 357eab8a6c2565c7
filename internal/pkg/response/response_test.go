package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPaymentRequiredCarriesShortfall(t *testing.T) {
	rec := httptest.NewRecorder()
	PaymentRequired(rec, 3, 10)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string           `json:"code"`
			Details map[string]int64 `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Success || body.Error.Code != "INSUFFICIENT_FUNDS" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Error.Details["shortfall"] != 7 {
		t.Fatalf("expected shortfall 7, got %d", body.Error.Details["shortfall"])
	}
}
