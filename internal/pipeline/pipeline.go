// Package pipeline implements the chart analysis orchestration: validate
// the uploaded payload, classify the chart and predict the next candle,
// then annotate the image and generate a risk disclaimer as best-effort
// enhancements, aggregating everything into one AnalysisResult.
package pipeline

import (
	"context"
	"sync"

	"go-chart-analyzer/internal/logger"
	"go-chart-analyzer/internal/payload"

	"github.com/sirupsen/logrus"
)

// Pipeline orchestrates the analysis stages. It holds no per-request
// state; one instance serves all requests.
type Pipeline struct {
	model              ModelInvoker
	disclaimerLanguage string
}

func New(model ModelInvoker, disclaimerLanguage string) *Pipeline {
	if disclaimerLanguage == "" {
		disclaimerLanguage = "English"
	}
	return &Pipeline{
		model:              model,
		disclaimerLanguage: disclaimerLanguage,
	}
}

// Analyze runs the full pipeline for one uploaded payload. It always
// returns a complete AnalysisResult and never panics: any failure
// resolves to exactly one of the five terminal states.
func (p *Pipeline) Analyze(ctx context.Context, rawPayload string) (result AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("analysis pipeline panicked")
			result = AnalysisResult{Success: false, IsValidChart: false, Error: msgUpstreamFailure}
		}
	}()

	// Stage 1: input validation, before any model call.
	img, err := payload.Parse(rawPayload)
	if err != nil {
		logger.WithError(err).Info("rejected malformed upload")
		return AnalysisResult{Success: false, IsValidChart: false, Error: msgInvalidInput}
	}

	// Stage 2: classification and prediction. The only fatal stage.
	assessment, err := p.classify(ctx, img)
	if err != nil {
		logger.WithError(err).Error("classifier stage failed")
		return AnalysisResult{Success: false, IsValidChart: false, Error: msgUpstreamFailure}
	}
	if !assessment.IsValidChart {
		// Expected terminal outcome, not an error path.
		return AnalysisResult{Success: false, IsValidChart: false, Error: msgNotAChart}
	}
	if assessment.Prediction == nil {
		// Contract says prediction accompanies a valid chart; its absence
		// is reported distinctly from the not-a-chart case.
		logger.Warn("classifier confirmed chart but omitted prediction")
		return AnalysisResult{Success: false, IsValidChart: true, Error: msgNoPrediction}
	}
	pred := *assessment.Prediction

	// Stages 3 and 4 depend only on the prediction, not on each other, so
	// they run concurrently. Both absorb their own failures.
	var (
		wg         sync.WaitGroup
		annotated  *payload.Payload
		disclaimer string
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		annotated = p.annotate(ctx, img, pred)
	}()
	go func() {
		defer wg.Done()
		disclaimer = p.disclaim(ctx, pred)
	}()
	wg.Wait()

	result = AnalysisResult{
		Success:      true,
		IsValidChart: true,
		Prediction:   &pred,
		Disclaimer:   disclaimer,
	}
	if annotated != nil {
		result.AnnotatedImage = annotated.DataURI()
	}

	logger.WithFields(logrus.Fields{
		"direction":   pred.Direction,
		"probability": pred.Probability,
		"annotated":   annotated != nil,
	}).Info("chart analysis completed")
	return result
}
