package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "go-chart-analyzer/internal/errors"
	"go-chart-analyzer/internal/gemini"
	"go-chart-analyzer/internal/payload"
)

const classifierSystemPrompt = "You are a strict trading chart analyst. " +
	"First decide whether the image is a screenshot of a binary-options-style trading chart " +
	"(candlesticks or a price line over a time axis). Reject photos, drawings, memes, or any " +
	"image that is not clearly a trading chart: set isValidChart to false and omit the prediction. " +
	"Only when the image is a valid chart, predict the direction of the next candle (UP or DOWN) " +
	"and a probability between 0 and 1 expressing your confidence."

// classifierSchema is enforced upstream via the response schema and
// re-checked locally; the local check is the one that counts.
var classifierSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"isValidChart": map[string]interface{}{"type": "boolean"},
		"prediction": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"direction":   map[string]interface{}{"type": "string", "enum": []string{"UP", "DOWN"}},
				"probability": map[string]interface{}{"type": "number"},
			},
			"required": []string{"direction", "probability"},
		},
	},
	"required": []string{"isValidChart"},
}

// classify runs the classifier/predictor stage. Any failure here is fatal
// for the pipeline; contract checks are never softened into the success
// path by clamping or coercion.
func (p *Pipeline) classify(ctx context.Context, img payload.Payload) (ChartAssessment, error) {
	raw, err := p.model.GenerateJSON(ctx, gemini.Request{
		System: classifierSystemPrompt,
		Text:   "Classify this image and, only if it is a valid trading chart, predict the next candle.",
		Image:  &img,
	}, classifierSchema)
	if err != nil {
		return ChartAssessment{}, err
	}

	// Decode through pointer fields so an absent probability is
	// distinguishable from a literal zero; encoding/json would otherwise
	// zero-value the missing field straight past the range check.
	var decoded struct {
		IsValidChart bool `json:"isValidChart"`
		Prediction   *struct {
			Direction   Direction `json:"direction"`
			Probability *float64  `json:"probability"`
		} `json:"prediction"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return ChartAssessment{}, apperrors.NewContractError("classifier output does not match schema", err)
	}

	assessment := ChartAssessment{IsValidChart: decoded.IsValidChart}
	if pred := decoded.Prediction; pred != nil {
		if !pred.Direction.Valid() {
			return ChartAssessment{}, apperrors.NewContractError(
				fmt.Sprintf("classifier returned direction %q, expected UP or DOWN", pred.Direction), nil)
		}
		if pred.Probability == nil {
			return ChartAssessment{}, apperrors.NewContractError(
				"classifier returned a prediction without a probability", nil)
		}
		if *pred.Probability < 0 || *pred.Probability > 1 {
			return ChartAssessment{}, apperrors.NewContractError(
				fmt.Sprintf("classifier returned probability %g outside [0,1]", *pred.Probability), nil)
		}
		assessment.Prediction = &Prediction{Direction: pred.Direction, Probability: *pred.Probability}
	}
	return assessment, nil
}
