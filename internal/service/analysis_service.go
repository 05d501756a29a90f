package service

import (
	"context"

	"go-chart-analyzer/internal/history"
	"go-chart-analyzer/internal/logger"
	"go-chart-analyzer/internal/payload"
	"go-chart-analyzer/internal/pipeline"
	"go-chart-analyzer/internal/storage"

	"github.com/sirupsen/logrus"
)

// AnalysisService fronts the pipeline for the transport layer: it runs the
// analysis, records the history entry, and archives the screenshot.
type AnalysisService interface {
	Analyze(ctx context.Context, rawPayload string) pipeline.AnalysisResult
	History() []history.Entry
	ClearHistory()
}

type analysisService struct {
	analyzer pipeline.Analyzer
	history  *history.Store
	archive  storage.ScreenshotArchive
}

func NewAnalysisService(analyzer pipeline.Analyzer, store *history.Store, archive storage.ScreenshotArchive) AnalysisService {
	return &analysisService{
		analyzer: analyzer,
		history:  store,
		archive:  archive,
	}
}

// Analyze runs the pipeline and performs the surrounding bookkeeping.
// History and archiving sit outside the pipeline: the pipeline itself
// mutates no shared state.
func (s *analysisService) Analyze(ctx context.Context, rawPayload string) pipeline.AnalysisResult {
	result := s.analyzer.Analyze(ctx, rawPayload)

	entry := s.history.Add(result)

	// Archive only well-formed uploads, best-effort. This parse repeats
	// the pipeline's own validation on purpose: the pipeline accepts the
	// raw string so its inbound contract stays a single operation, and
	// both sides call the same payload.Parse, so the validity decision
	// cannot diverge.
	if img, err := payload.Parse(rawPayload); err == nil {
		if err := s.archive.Archive(ctx, entry.ID, img); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"entry_id": entry.ID,
			}).Warn("screenshot archive failed")
		}
	}

	return result
}

func (s *analysisService) History() []history.Entry {
	return s.history.List()
}

func (s *analysisService) ClearHistory() {
	s.history.Clear()
}
