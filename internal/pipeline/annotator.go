package pipeline

import (
	"context"
	"fmt"

	"go-chart-analyzer/internal/gemini"
	"go-chart-analyzer/internal/logger"
	"go-chart-analyzer/internal/payload"
)

// Watermark overlaid on every annotated chart.
const annotationWatermark = "AI ANALYSIS - NOT FINANCIAL ADVICE"

const annotatorSystemPrompt = "You are a chart annotation engine. You receive a trading chart " +
	"screenshot and a prediction, and you return the same chart with annotations drawn on top. " +
	"Keep the underlying chart unchanged."

// annotate runs the best-effort annotation stage. Annotation is
// decorative; the prediction is the value. Every failure is absorbed here
// and reported as absence, never as a pipeline error.
func (p *Pipeline) annotate(ctx context.Context, img payload.Payload, pred Prediction) *payload.Payload {
	annotated, err := p.model.GenerateImage(ctx, gemini.Request{
		System: annotatorSystemPrompt,
		Text:   annotationPrompt(pred),
		Image:  &img,
	})
	if err != nil {
		logger.WithError(err).Warn("annotation stage failed, continuing without annotated image")
		return nil
	}
	return &annotated
}

// annotationPrompt asks for a small fixed set of callouts consistent with
// the predicted direction. Labels are always English, independent of the
// disclaimer language.
func annotationPrompt(pred Prediction) string {
	feature := "support zone and bullish momentum"
	if pred.Direction == DirectionDown {
		feature = "resistance zone and bearish momentum"
	}
	return fmt.Sprintf(
		"Annotate this chart for a predicted %s move (probability %.2f). "+
			"Draw exactly 3 callouts in English: (1) an arrow marking the expected %s direction on the last candle, "+
			"(2) a highlighted %s, (3) a short trend line over the most recent swing. "+
			"Overlay the watermark text %q in a corner. Do not add any other text.",
		pred.Direction, pred.Probability, pred.Direction, feature, annotationWatermark)
}
