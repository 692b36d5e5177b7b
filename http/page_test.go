package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestHandlePageRendersPrediction(t *testing.T) {
	fake := &fakePredictor{result: bandengResult()}
	handler := NewHandler(DefaultServerConfig(), Dependencies{Predictor: fake, Artifacts: &fakeArtifacts{}})

	req := httptest.NewRequest(http.MethodGet, "/?length=55", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"Hasil Prediksi Spesies Ikan",
		"<strong>Bandeng</strong>",
		"<svg",
		"80,00%",
		`value="55"`,
		`lang="id"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
	if strings.Contains(body, "<?xml") {
		t.Error("inline chart should not carry an XML declaration")
	}
}

func TestHandlePageEnglishPercentages(t *testing.T) {
	fake := &fakePredictor{result: bandengResult()}
	handler := NewHandler(DefaultServerConfig(), Dependencies{Predictor: fake, Artifacts: &fakeArtifacts{}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "80.00%") {
		t.Fatalf("expected english percentage, got %s", w.Body.String())
	}
}

func TestHandlePageMissingModel(t *testing.T) {
	handler := NewHandler(DefaultServerConfig(), storeDeps(t, t.TempDir()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Model tidak ditemukan! Pastikan file &#39;iwakRf.json&#39; ada di direktori.") {
		t.Errorf("expected missing model message, got %s", body)
	}
	if !strings.Contains(body, "LabelEncoder tidak ditemukan!") {
		t.Error("expected missing label encoder message")
	}
	if strings.Contains(body, "<svg") || strings.Contains(body, "Hasil Prediksi") {
		t.Error("no result or chart should be rendered without artifacts")
	}
}

func TestHandlePageInvalidInput(t *testing.T) {
	fake := &fakePredictor{result: bandengResult()}
	handler := NewHandler(DefaultServerConfig(), Dependencies{Predictor: fake, Artifacts: &fakeArtifacts{}})

	req := httptest.NewRequest(http.MethodGet, "/?weight=-3", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "Input tidak valid") {
		t.Fatalf("expected invalid input message, got %s", body)
	}
	if len(fake.rows) != 0 {
		t.Fatal("predictor should not run on invalid input")
	}
	if !strings.Contains(body, `value="-3"`) {
		t.Error("submitted value should be echoed back")
	}
}

func TestHandlePageUnknownPath(t *testing.T) {
	handler := NewHandler(DefaultServerConfig(), Dependencies{Predictor: &fakePredictor{}, Artifacts: &fakeArtifacts{}})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestLocaleFor(t *testing.T) {
	tests := []struct {
		header string
		want   language.Tag
	}{
		{"", language.Indonesian},
		{"id-ID", language.Indonesian},
		{"en-GB,en;q=0.8", language.English},
		{"fr-FR", language.Indonesian},
		{"!!garbage", language.Indonesian},
	}
	for _, tt := range tests {
		tag, printer := localeFor(tt.header)
		if tag != tt.want {
			t.Errorf("localeFor(%q) = %v, want %v", tt.header, tag, tt.want)
		}
		if printer == nil {
			t.Errorf("localeFor(%q) returned nil printer", tt.header)
		}
	}
}

func TestInlineSVG(t *testing.T) {
	got := inlineSVG([]byte(`<?xml version="1.0"?><svg width="1"></svg>`))
	if got != `<svg width="1"></svg>` {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestHandlePageAcceptsFineDecimals(t *testing.T) {
	fake := &fakePredictor{result: bandengResult()}
	handler := NewHandler(DefaultServerConfig(), Dependencies{Predictor: fake, Artifacts: &fakeArtifacts{}})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?weight=10.05&w_l_ratio=0.25", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if strings.Count(body, `step="any"`) != 3 {
		t.Fatalf("expected every input to accept any decimal, got:\n%s", body)
	}
	if strings.Contains(body, `step="0.1"`) || strings.Contains(body, `step="1"`) {
		t.Fatal("inputs must not restrict decimal precision")
	}
	if len(fake.rows) != 1 || fake.rows[0].Weight != 10.05 || fake.rows[0].WLRatio != 0.25 {
		t.Fatalf("expected weight 10.05 and ratio 0.25 to reach the predictor, got %+v", fake.rows)
	}
}
