package constants

// API key scopes.
const (
	ScopeRead   = "read"
	ScopeEvents = "events"
	ScopeSync   = "sync"
)

// Context keys used with fiber's Locals.
const (
	LocalSession = "session"
	LocalAPIKey  = "api_key"
)
