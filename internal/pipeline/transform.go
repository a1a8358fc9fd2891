package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/couchcryptid/dock-health-etl/internal/domain"
)

// DockTransformer implements Transformer using the domain enrichment for a
// fixed target class.
type DockTransformer struct {
	class  domain.Severity
	newID  func() string
	logger *slog.Logger
}

// NewTransformer creates a DockTransformer counting stations of class.
func NewTransformer(class domain.Severity, logger *slog.Logger) *DockTransformer {
	return &DockTransformer{
		class:  class,
		newID:  uuid.NewString,
		logger: logger,
	}
}

func (t *DockTransformer) Transform(_ context.Context, feed domain.Feed) (domain.Summary, error) {
	summary, err := domain.Enrich(feed, t.class)
	if err != nil {
		return domain.Summary{}, err
	}
	summary.RunID = t.newID()

	t.logger.Debug("feed enriched",
		"run_id", summary.RunID,
		"date", summary.Date,
		"green", summary.ColorCounts[domain.Green],
		"yellow", summary.ColorCounts[domain.Yellow],
		"red", summary.ColorCounts[domain.Red],
	)
	return summary, nil
}
