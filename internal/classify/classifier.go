// Package classify decides which capability tier handles a task
// description, and with it the model and token ceilings for every call
// the task makes.
package classify

import (
	"context"
	"strings"

	"github.com/stewardbot/steward/internal/config"
	"github.com/stewardbot/steward/pkg/models"
)

// Classification is the routing decision for one task.
type Classification struct {
	Tier            models.Tier
	Model           string
	MaxInputTokens  int
	MaxOutputTokens int
}

// Classifier routes a description to a tier. Implementations never fail:
// when routing cannot be decided they fall back to the standard tier.
type Classifier interface {
	Classify(ctx context.Context, description string) Classification
}

// Keywords that push a description to the complex tier.
var complexKeywords = []string{
	"write",
	"analyze",
	"design",
	"debug",
	"compare",
	"explain",
}

// Keywords that mark obviously mechanical work.
var simpleKeywords = []string{
	"list files",
	"read file",
	"status check",
	"typo",
	"formatting",
}

// complexLength is the description length above which work is assumed to
// need the complex tier regardless of wording.
const complexLength = 500

// Fixed builds the Classification for a known tier, bypassing routing.
// Used for planners and for explicit tier overrides.
func Fixed(cfg *config.Config, tier models.Tier) Classification {
	ceilings := cfg.Ceilings(tier)
	return Classification{
		Tier:            tier,
		Model:           cfg.ModelFor(tier),
		MaxInputTokens:  ceilings.MaxInput,
		MaxOutputTokens: ceilings.MaxOutput,
	}
}

// Override checks a description for a leading tier-override marker.
// "!fast " forces the simple tier, "!deep " the complex tier. It returns
// the forced tier and the description with the marker stripped.
func Override(description string) (models.Tier, string, bool) {
	lower := strings.ToLower(description)
	switch {
	case strings.HasPrefix(lower, "!fast "):
		return models.TierSimple, strings.TrimSpace(description[6:]), true
	case strings.HasPrefix(lower, "!deep "):
		return models.TierComplex, strings.TrimSpace(description[6:]), true
	}
	return "", description, false
}

// KeywordClassifier routes on wording and length alone, with no service
// call. It is the fallback behind the router and the default for tests.
type KeywordClassifier struct {
	cfg *config.Config
}

// NewKeywordClassifier creates a keyword-based classifier.
func NewKeywordClassifier(cfg *config.Config) *KeywordClassifier {
	return &KeywordClassifier{cfg: cfg}
}

// Classify routes a description by keyword and length.
func (k *KeywordClassifier) Classify(_ context.Context, description string) Classification {
	return Fixed(k.cfg, keywordTier(description))
}

// keywordTier applies the keyword and length rules shared by both
// classifiers.
func keywordTier(description string) models.Tier {
	lower := strings.ToLower(description)

	for _, kw := range simpleKeywords {
		if strings.Contains(lower, kw) {
			return models.TierSimple
		}
	}
	if len(description) > complexLength {
		return models.TierComplex
	}
	for _, kw := range complexKeywords {
		if strings.Contains(lower, kw) {
			return models.TierComplex
		}
	}
	return models.TierStandard
}
