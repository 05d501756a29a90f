package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go-chart-analyzer/internal/gemini"
	"go-chart-analyzer/internal/logger"
)

const disclaimerSystemPrompt = "You write risk disclosures for a trading analysis tool. " +
	"Write plain, human-readable text with no markdown and no headings."

// disclaim runs the best-effort disclaimer stage. The disclaimer is a
// compliance-relevant element, so failure substitutes the deterministic
// fallback text rather than leaving the field empty.
func (p *Pipeline) disclaim(ctx context.Context, pred Prediction) string {
	text, err := p.model.GenerateText(ctx, gemini.Request{
		System: disclaimerSystemPrompt,
		Text:   disclaimerPrompt(p.disclaimerLanguage, pred),
	})
	if err != nil {
		logger.WithError(err).Warn("disclaimer stage failed, substituting fallback text")
		return FallbackDisclaimer
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackDisclaimer
	}
	return text
}

func disclaimerPrompt(language string, pred Prediction) string {
	return fmt.Sprintf(
		"A prediction of %s with probability %.2f was just shown to a user of a binary options "+
			"analysis tool. Write a short risk disclaimer in %s covering all five of these points: "+
			"the high risk of loss in binary options trading, the possibility of losing the entire "+
			"capital, that the prediction carries no guarantee of accuracy, that the user should "+
			"trade only with capital they can afford to lose, and that they should seek independent "+
			"financial advice.",
		pred.Direction, pred.Probability, language)
}
