package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	apperrors "go-chart-analyzer/internal/errors"
	"go-chart-analyzer/internal/gemini"
	"go-chart-analyzer/internal/payload"
)

// Minimal 1x1 PNG, enough for content sniffing and decoding.
var pngBytes = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, // 1x1 dimensions
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4, 0x89,
}

func validUpload() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

// fakeModel implements ModelInvoker with canned responses and call counts.
type fakeModel struct {
	jsonCalls  int
	imageCalls int
	textCalls  int

	jsonResp  []byte
	jsonErr   error
	imageResp payload.Payload
	imageErr  error
	textResp  string
	textErr   error
}

func (f *fakeModel) GenerateJSON(_ context.Context, _ gemini.Request, _ map[string]interface{}) ([]byte, error) {
	f.jsonCalls++
	return f.jsonResp, f.jsonErr
}

func (f *fakeModel) GenerateImage(_ context.Context, _ gemini.Request) (payload.Payload, error) {
	f.imageCalls++
	return f.imageResp, f.imageErr
}

func (f *fakeModel) GenerateText(_ context.Context, _ gemini.Request) (string, error) {
	f.textCalls++
	return f.textResp, f.textErr
}

func happyModel() *fakeModel {
	return &fakeModel{
		jsonResp:  []byte(`{"isValidChart":true,"prediction":{"direction":"UP","probability":0.73}}`),
		imageResp: payload.Payload{MIME: "image/png", Data: pngBytes},
		textResp:  "Trading involves substantial risk.",
	}
}

func TestAnalyze_MalformedPayloadMakesNoModelCalls(t *testing.T) {
	malformed := []string{
		"",
		"not a data uri",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64,!!!not-base64!!!",
		"data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text bytes")),
	}

	for _, raw := range malformed {
		model := happyModel()
		p := New(model, "English")

		result := p.Analyze(context.Background(), raw)

		if result.Success || result.IsValidChart {
			t.Errorf("payload %q: expected success=false isValidChart=false, got %+v", raw, result)
		}
		if result.Error == "" {
			t.Errorf("payload %q: expected a user-facing error message", raw)
		}
		if total := model.jsonCalls + model.imageCalls + model.textCalls; total != 0 {
			t.Errorf("payload %q: expected 0 model calls, got %d", raw, total)
		}
	}
}

func TestAnalyze_NotAChart(t *testing.T) {
	model := happyModel()
	model.jsonResp = []byte(`{"isValidChart":false}`)
	p := New(model, "English")

	result := p.Analyze(context.Background(), validUpload())

	if result.Success {
		t.Error("expected success=false for a non-chart image")
	}
	if result.IsValidChart {
		t.Error("expected isValidChart=false for a non-chart image")
	}
	if model.imageCalls != 0 || model.textCalls != 0 {
		t.Errorf("expected no annotation/disclaimer calls, got image=%d text=%d", model.imageCalls, model.textCalls)
	}
}

func TestAnalyze_ValidChartMissingPrediction(t *testing.T) {
	model := happyModel()
	model.jsonResp = []byte(`{"isValidChart":true}`)
	p := New(model, "English")

	result := p.Analyze(context.Background(), validUpload())

	if result.Success {
		t.Error("expected success=false when the prediction is missing")
	}
	if !result.IsValidChart {
		t.Error("expected isValidChart=true: this state must be distinguishable from the not-a-chart case")
	}
	if model.imageCalls != 0 || model.textCalls != 0 {
		t.Errorf("expected no annotation/disclaimer calls, got image=%d text=%d", model.imageCalls, model.textCalls)
	}
}

func TestAnalyze_HappyPath(t *testing.T) {
	model := happyModel()
	p := New(model, "English")

	result := p.Analyze(context.Background(), validUpload())

	if !result.Success || !result.IsValidChart {
		t.Fatalf("expected full success, got %+v", result)
	}
	if result.Prediction == nil {
		t.Fatal("expected a prediction")
	}
	if result.Prediction.Direction != DirectionUp || result.Prediction.Probability != 0.73 {
		t.Errorf("expected UP/0.73, got %s/%g", result.Prediction.Direction, result.Prediction.Probability)
	}
	if !strings.HasPrefix(result.AnnotatedImage, "data:image/") {
		t.Errorf("expected an annotated image data URI, got %q", result.AnnotatedImage)
	}
	if result.Disclaimer == "" {
		t.Error("expected a non-empty disclaimer")
	}
	if result.Error != "" {
		t.Errorf("expected no error message, got %q", result.Error)
	}
	if model.jsonCalls != 1 || model.imageCalls != 1 || model.textCalls != 1 {
		t.Errorf("expected one call per stage, got json=%d image=%d text=%d",
			model.jsonCalls, model.imageCalls, model.textCalls)
	}
}

func TestAnalyze_AnnotationFailureIsAbsorbed(t *testing.T) {
	model := happyModel()
	model.imageResp = payload.Payload{}
	model.imageErr = apperrors.NewUpstreamError("image model unavailable", nil)
	p := New(model, "English")

	result := p.Analyze(context.Background(), validUpload())

	if !result.Success {
		t.Fatalf("annotation failure must not fail the pipeline, got %+v", result)
	}
	if result.AnnotatedImage != "" {
		t.Errorf("expected no annotated image, got %q", result.AnnotatedImage)
	}
	if result.Disclaimer == "" {
		t.Error("disclaimer should still be present")
	}
}

func TestAnalyze_DisclaimerFailureSubstitutesFallback(t *testing.T) {
	tests := []struct {
		name     string
		textResp string
		textErr  error
	}{
		{name: "call error", textErr: errors.New("quota exceeded")},
		{name: "blank output", textResp: "   \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := happyModel()
			model.textResp = tt.textResp
			model.textErr = tt.textErr
			p := New(model, "English")

			result := p.Analyze(context.Background(), validUpload())

			if !result.Success {
				t.Fatalf("disclaimer failure must not fail the pipeline, got %+v", result)
			}
			if result.Disclaimer != FallbackDisclaimer {
				t.Errorf("expected fallback disclaimer, got %q", result.Disclaimer)
			}
		})
	}
}

func TestAnalyze_ClassifierContractViolations(t *testing.T) {
	tests := []struct {
		name string
		resp string
	}{
		{name: "probability above range", resp: `{"isValidChart":true,"prediction":{"direction":"UP","probability":1.5}}`},
		{name: "probability below range", resp: `{"isValidChart":true,"prediction":{"direction":"DOWN","probability":-0.1}}`},
		{name: "unknown direction", resp: `{"isValidChart":true,"prediction":{"direction":"SIDEWAYS","probability":0.5}}`},
		{name: "missing probability", resp: `{"isValidChart":true,"prediction":{"direction":"UP"}}`},
		{name: "missing direction", resp: `{"isValidChart":true,"prediction":{"probability":0.5}}`},
		{name: "not json at all", resp: `updeen`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := happyModel()
			model.jsonResp = []byte(tt.resp)
			p := New(model, "English")

			result := p.Analyze(context.Background(), validUpload())

			if result.Success {
				t.Fatal("contract violations must never be coerced into the success path")
			}
			if result.Prediction != nil {
				t.Errorf("expected no prediction in the result, got %+v", result.Prediction)
			}
			if model.imageCalls != 0 || model.textCalls != 0 {
				t.Error("expected no best-effort stage calls after a classifier failure")
			}
		})
	}
}

func TestAnalyze_ClassifierUpstreamFailure(t *testing.T) {
	model := happyModel()
	model.jsonResp = nil
	model.jsonErr = apperrors.NewUpstreamError("model call failed", errors.New("connection refused"))
	p := New(model, "English")

	result := p.Analyze(context.Background(), validUpload())

	if result.Success || result.IsValidChart {
		t.Errorf("expected generic failure, got %+v", result)
	}
	if result.Error == "" {
		t.Error("expected a user-facing error message")
	}
}

// panickyModel panics on the classifier call.
type panickyModel struct{ fakeModel }

func (p *panickyModel) GenerateJSON(context.Context, gemini.Request, map[string]interface{}) ([]byte, error) {
	panic("unexpected internal failure")
}

func TestAnalyze_PanicNeverEscapes(t *testing.T) {
	p := New(&panickyModel{}, "English")

	result := p.Analyze(context.Background(), validUpload())

	if result.Success || result.IsValidChart {
		t.Errorf("expected the panic to downgrade to a generic failure, got %+v", result)
	}
	if result.Error == "" {
		t.Error("expected a user-facing error message")
	}
}

func TestAnalyze_Idempotence(t *testing.T) {
	model := happyModel()
	p := New(model, "English")

	first := p.Analyze(context.Background(), validUpload())
	second := p.Analyze(context.Background(), validUpload())

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Errorf("identical payloads with deterministic responses must yield identical results:\n%s\n%s", a, b)
	}
}
