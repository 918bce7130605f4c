package policy

import (
	"strings"

	"go-compass/internal/config"
)

// HeuristicEngine is the baseline Decider: a fixed-priority cascade of
// keyword predicates over the prompt. Pure and deterministic for a given
// configuration; safe for arbitrarily many concurrent callers.
type HeuristicEngine struct {
	cfg config.EngineConfig
}

// NewHeuristicEngine builds the baseline decider from engine configuration.
func NewHeuristicEngine(cfg config.EngineConfig) *HeuristicEngine {
	return &HeuristicEngine{cfg: cfg}
}

// Variant identifies the active decision strategy.
func (e *HeuristicEngine) Variant() string {
	return "heuristic-v1"
}

// Decide classifies the request and returns a fully populated policy.
// Routing must never block request admission: malformed input (missing
// prompt) yields the default chat policy instead of an error.
func (e *HeuristicEngine) Decide(req Request) RoutePolicy {
	prompt := strings.ToLower(strings.TrimSpace(req.Prompt))

	p := RoutePolicy{
		Engine:           EngineLocalGeneral,
		Mode:             ModeChat,
		ReasonLoops:      0,
		MaxContextTokens: e.cfg.DefaultContextTokens,
		LatencyBudgetMs:  e.cfg.DefaultLatencyMs,
		Rag:              RagConfig{Enabled: false, TopK: 0},
		Tools:            []string{},
		Safety:           SafetyConfig{AllowNetwork: false, AllowShellExecution: false},
	}

	if prompt == "" {
		p.Explanation = "empty prompt: default chat policy"
		p.Fallbacks = e.fallbacksFor(p.Engine)
		return p
	}

	// First match wins; order is fixed so behavior is reproducible.
	switch {
	case hasVisionCue(prompt, req.Metadata):
		p.Mode = ModeVision
		p.Explanation = "vision cue detected: routed to a vision-capable engine"

	case referencesOwnDocuments(prompt, req.Metadata):
		p.Mode = ModeRag
		p.Rag = RagConfig{Enabled: true, TopK: e.cfg.RagTopK}
		p.Tools = append(p.Tools, ToolRetrieval)
		p.Explanation = "request references the caller's own documents: retrieval enabled"

	case isCodingTask(prompt):
		p.Mode = ModeCode
		p.ReasonLoops = e.cfg.CodeReasonLoops
		p.MaxContextTokens = e.cfg.CodeContextTokens
		p.Explanation = "coding task: widened context with refinement loops"

	case isReasoningTask(prompt):
		p.Mode = ModeReason
		p.ReasonLoops = e.cfg.DeepReasonLoops
		p.LatencyBudgetMs = e.cfg.RelaxedLatencyMs
		p.Explanation = "multi-step reasoning task: relaxed latency budget"

	case isShortAndSimple(prompt):
		p.Engine = EngineLocalFast
		p.LatencyBudgetMs = e.cfg.TightLatencyMs
		p.Explanation = "short simple prompt: fast engine with tight latency budget"

	default:
		p.Explanation = "no specific cue matched: balanced chat defaults"
	}

	// External-information need is orthogonal to the mode cascade. It forces
	// a network-capable engine and allowNetwork, never shell execution.
	if wantsExternalInfo(prompt) {
		if p.Mode == ModeVision {
			p.Engine = EngineHybrid
		} else {
			p.Engine = EngineRemoteSearch
		}
		p.Safety.AllowNetwork = true
		p.Tools = append(p.Tools, ToolWebSearch)
		p.Explanation += "; wants external information: network-capable engine"
	} else if p.Mode == ModeVision && !SupportsVision(p.Engine) {
		p.Engine = EngineLocalGeneral
	}

	p.Fallbacks = e.fallbacksFor(p.Engine)
	return p
}

// fallbacksFor returns the fixed degradation order with the primary engine
// removed. Always non-empty.
func (e *HeuristicEngine) fallbacksFor(primary Engine) []Engine {
	order := []Engine{EngineLocalGeneral, EngineLocalFast, EngineRemoteSearch}
	out := make([]Engine, 0, len(order))
	for _, eng := range order {
		if eng != primary {
			out = append(out, eng)
		}
	}
	return out
}
