package policy

// Engine is an abstract execution target class, never a concrete model name.
type Engine string

const (
	EngineLocalFast    Engine = "local-fast"
	EngineLocalGeneral Engine = "local-general"
	EngineRemoteSearch Engine = "remote-search-capable"
	EngineHybrid       Engine = "hybrid"
)

// Mode is the execution mode requested for a routed request.
type Mode string

const (
	ModeChat   Mode = "chat"
	ModeReason Mode = "reason"
	ModeCode   Mode = "code"
	ModeRag    Mode = "rag"
	ModeVision Mode = "vision"
)

// Tool identifiers a policy may request from the executor.
const (
	ToolRetrieval = "document-retrieval"
	ToolWebSearch = "web-search"
)

// AllEngines lists the closed set of execution targets.
func AllEngines() []Engine {
	return []Engine{EngineLocalFast, EngineLocalGeneral, EngineRemoteSearch, EngineHybrid}
}

// AllModes lists the closed set of execution modes.
func AllModes() []Mode {
	return []Mode{ModeChat, ModeReason, ModeCode, ModeRag, ModeVision}
}

// visionCapable marks which engines can handle image input.
var visionCapable = map[Engine]bool{
	EngineLocalGeneral: true,
	EngineHybrid:       true,
}

// networkCapable marks which engines can reach external sources.
var networkCapable = map[Engine]bool{
	EngineRemoteSearch: true,
	EngineHybrid:       true,
}

// SupportsVision reports whether an engine accepts image input.
func SupportsVision(e Engine) bool { return visionCapable[e] }

// SupportsNetwork reports whether an engine can reach external sources.
func SupportsNetwork(e Engine) bool { return networkCapable[e] }

// Request is an inbound routing request. Immutable, supplied by the caller.
type Request struct {
	Prompt   string         `json:"prompt"`
	Metadata map[string]any `json:"metadata"`
}

// RagConfig is the retrieval portion of a policy.
type RagConfig struct {
	Enabled bool `json:"enabled"`
	TopK    int  `json:"topK"`
}

// SafetyConfig constrains what the executor may do on behalf of a policy.
// AllowShellExecution is false by construction; no branch of the engine
// sets it.
type SafetyConfig struct {
	AllowNetwork        bool `json:"allowNetwork"`
	AllowShellExecution bool `json:"allowShellExecution"`
}

// RoutePolicy is the engine's decision: how a request should be executed.
// Always fully populated; owned by the caller once returned.
type RoutePolicy struct {
	Engine           Engine       `json:"engine"`
	Mode             Mode         `json:"mode"`
	ReasonLoops      int          `json:"reasonLoops"`
	MaxContextTokens int          `json:"maxContextTokens"`
	LatencyBudgetMs  int          `json:"latencyBudgetMs"`
	Rag              RagConfig    `json:"rag"`
	Tools            []string     `json:"tools"`
	Safety           SafetyConfig `json:"safety"`
	Fallbacks        []Engine     `json:"fallbacks"`
	Explanation      string       `json:"explanation"`
}

// Decider turns a request into an executable policy. The heuristic engine is
// one implementation; a learned variant can be substituted without touching
// callers.
type Decider interface {
	Decide(req Request) RoutePolicy
	Variant() string
}
