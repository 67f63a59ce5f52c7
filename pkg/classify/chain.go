package classify

import (
	"context"

	"go.uber.org/zap"
)

// Chain is the model-with-heuristic-fallback classifier. The model step is
// optional; any transport or parse failure there falls through to the
// heuristic, so the heuristic is always reachable and the chain as a whole
// never fails.
type Chain struct {
	model     ModelClassifier
	heuristic *HeuristicClassifier
	logger    *zap.Logger
}

func NewChain(model ModelClassifier, heuristic *HeuristicClassifier, logger *zap.Logger) *Chain {
	return &Chain{
		model:     model,
		heuristic: heuristic,
		logger:    logger.Named("classify"),
	}
}

func (c *Chain) Classify(ctx context.Context, email, displayName string, meta *Metadata) bool {
	if c.model != nil {
		automated, err := c.model.ClassifyAutomated(ctx, email, displayName, meta)
		if err == nil {
			return automated
		}
		c.logger.Debug("model classification failed, falling back to heuristics",
			zap.String("email", email),
			zap.Error(err),
		)
	}
	return c.heuristic.Classify(ctx, email, displayName, meta)
}
