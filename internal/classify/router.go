package classify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/stewardbot/steward/internal/config"
	"github.com/stewardbot/steward/internal/llm"
	"github.com/stewardbot/steward/pkg/models"
)

const routerPrompt = `Classify this task into exactly one category. Respond with ONLY the category name, nothing else.

SIMPLE - file reads, status checks, simple formatting, short summaries, listing files, simple questions
STANDARD - writing, analysis, experiment design, code debugging, multi-step reasoning, data interpretation

Task: %s`

// routerMaxTokens bounds the routing call; the reply is one word.
const routerMaxTokens = 10

// caller is the slice of the reasoning client the router needs.
type caller interface {
	Invoke(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Router classifies descriptions with a cheap reasoning-service call on
// the simple-tier model. Routing failures never fail the task: the
// router falls back to the standard tier.
type Router struct {
	cfg    *config.Config
	client caller
}

// NewRouter creates a service-backed classifier.
func NewRouter(cfg *config.Config, client caller) *Router {
	return &Router{cfg: cfg, client: client}
}

// Classify routes a description. The routing call itself runs on the
// simple-tier model; its cost is charged to the task by the caller.
func (r *Router) Classify(ctx context.Context, description string) Classification {
	resp, err := r.client.Invoke(ctx, llm.Request{
		Model:     r.cfg.Models.Simple,
		MaxTokens: routerMaxTokens,
		Messages:  []llm.Message{llm.UserText(fmt.Sprintf(routerPrompt, description))},
	})
	if err != nil {
		log.Printf("classify: routing call failed, defaulting to standard: %v", err)
		return Fixed(r.cfg, models.TierStandard)
	}

	if strings.Contains(strings.ToUpper(resp.Text()), "SIMPLE") {
		return Fixed(r.cfg, models.TierSimple)
	}
	return Fixed(r.cfg, escalateTier(description))
}

// escalateTier splits non-simple work between standard and complex by
// length and wording.
func escalateTier(description string) models.Tier {
	if len(description) > complexLength {
		return models.TierComplex
	}
	lower := strings.ToLower(description)
	for _, kw := range complexKeywords {
		if strings.Contains(lower, kw) {
			return models.TierComplex
		}
	}
	return models.TierStandard
}
