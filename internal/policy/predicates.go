package policy

import "strings"

// Feature predicates over the lower-cased prompt plus metadata flags. Each
// predicate is independent; the engine applies them in a fixed priority order
// so routing stays reproducible.

func wantsExternalInfo(prompt string) bool {
	return containsAny(prompt,
		"latest", "current", "today", "this week", "right now", "news",
		"search the web", "search online", "look up", "google",
		"stock price", "weather", "what happened", "up to date", "recently",
	)
}

func hasVisionCue(prompt string, meta map[string]any) bool {
	if metaBool(meta, "hasImage") {
		return true
	}
	return containsAny(prompt,
		"image", "photo", "picture", "screenshot", "diagram",
		"look at this", "what do you see", "ocr",
	)
}

func referencesOwnDocuments(prompt string, meta map[string]any) bool {
	if metaBool(meta, "hasFiles") {
		return true
	}
	return containsAny(prompt,
		"my documents", "our documents", "my docs", "our docs",
		"my notes", "our notes", "my files", "our files",
		"knowledge base", "uploaded", "attached", "architecture docs",
	)
}

func isCodingTask(prompt string) bool {
	return containsAny(prompt,
		"code", "function", "debug", "refactor", "implement", "compile",
		"unit test", "stack trace", "regex", "script", "bug in",
		"write a program", "pull request",
	)
}

func isReasoningTask(prompt string) bool {
	return containsAny(prompt,
		"prove", "step by step", "calculate", "solve", "equation",
		"theorem", "derive", "logic puzzle", "math problem",
		"reason through", "chain of thought",
	)
}

// isShortAndSimple is a cheap length heuristic: short prompts with few words
// get the tightest latency budget.
func isShortAndSimple(prompt string) bool {
	return len(prompt) <= 80 && len(strings.Fields(prompt)) <= 12
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func metaBool(meta map[string]any, key string) bool {
	if meta == nil {
		return false
	}
	v, ok := meta[key].(bool)
	return ok && v
}
