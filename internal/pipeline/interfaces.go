package pipeline

import (
	"context"

	"go-chart-analyzer/internal/gemini"
	"go-chart-analyzer/internal/payload"
)

// ModelInvoker is the capability surface the pipeline needs from the
// external model provider. All three calls are schema-validated on the
// provider side and fail closed on mismatch, so the pipeline can be tested
// against fakes instead of a live model.
type ModelInvoker interface {
	GenerateJSON(ctx context.Context, req gemini.Request, schema map[string]interface{}) ([]byte, error)
	GenerateImage(ctx context.Context, req gemini.Request) (payload.Payload, error)
	GenerateText(ctx context.Context, req gemini.Request) (string, error)
}

// Analyzer runs one full analysis. Implemented by Pipeline; the transport
// layer depends on this interface.
type Analyzer interface {
	Analyze(ctx context.Context, rawPayload string) AnalysisResult
}
