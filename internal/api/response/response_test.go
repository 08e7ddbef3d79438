// internal/api/response/response_test.go
package response

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/protrade/protrade/internal/core"
)

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"hello": "world"}

	JSON(w, http.StatusOK, data)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected application/json content type")
	}

	var resp SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data == nil {
		t.Error("expected data in response")
	}
	if resp.Meta.Timestamp.IsZero() {
		t.Error("expected timestamp in meta")
	}
}

func TestError_WithCoreError(t *testing.T) {
	w := httptest.NewRecorder()
	err := core.ErrConfigInvalid

	Error(w, http.StatusBadRequest, err)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "CONFIG_INVALID" {
		t.Errorf("expected CONFIG_INVALID, got %s", resp.Error.Code)
	}
}

func TestError_WithWrappedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := core.WrapError(core.ErrDatasetNotFound, nil)

	Error(w, http.StatusNotFound, err)

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "DATASET_NOT_FOUND" {
		t.Errorf("expected DATASET_NOT_FOUND, got %s", resp.Error.Code)
	}
}

func TestFloat_Marshal(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"finite", 1.5, "1.5"},
		{"zero", 0, "0"},
		{"positive infinity", math.Inf(1), `"Infinity"`},
		{"negative infinity", math.Inf(-1), `"-Infinity"`},
		{"nan", math.NaN(), "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(Float(tt.value))
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestFloat_Unmarshal(t *testing.T) {
	var f Float

	if err := json.Unmarshal([]byte("2.5"), &f); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if float64(f) != 2.5 {
		t.Errorf("expected 2.5, got %g", float64(f))
	}

	if err := json.Unmarshal([]byte(`"Infinity"`), &f); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !math.IsInf(float64(f), 1) {
		t.Errorf("expected +Inf, got %g", float64(f))
	}

	if err := json.Unmarshal([]byte(`"-Infinity"`), &f); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !math.IsInf(float64(f), -1) {
		t.Errorf("expected -Inf, got %g", float64(f))
	}

	if err := json.Unmarshal([]byte("null"), &f); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !math.IsNaN(float64(f)) {
		t.Errorf("expected NaN, got %g", float64(f))
	}

	if err := json.Unmarshal([]byte(`"bogus"`), &f); err == nil {
		t.Error("expected error for unknown string value")
	}
}

func TestFloat_RoundTripInStruct(t *testing.T) {
	type payload struct {
		ProfitFactor Float `json:"profit_factor"`
		CAGR         Float `json:"cagr"`
	}

	data, err := json.Marshal(payload{
		ProfitFactor: Float(math.Inf(1)),
		CAGR:         Float(math.NaN()),
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"profit_factor":"Infinity","cagr":null}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}

	var back payload
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !math.IsInf(float64(back.ProfitFactor), 1) {
		t.Errorf("profit factor did not round-trip: %g", float64(back.ProfitFactor))
	}
	if !math.IsNaN(float64(back.CAGR)) {
		t.Errorf("cagr did not round-trip: %g", float64(back.CAGR))
	}
}

func TestFloats(t *testing.T) {
	vs := Floats([]float64{1, math.NaN()})
	if len(vs) != 2 {
		t.Fatalf("expected 2 values, got %d", len(vs))
	}
	if float64(vs[0]) != 1 {
		t.Errorf("expected 1, got %g", float64(vs[0]))
	}
	if !math.IsNaN(float64(vs[1])) {
		t.Errorf("expected NaN, got %g", float64(vs[1]))
	}
}
