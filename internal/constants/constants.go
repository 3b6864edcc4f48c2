// Package constants provides shared constants used across the application
// to avoid circular dependencies between packages.
package constants

import "time"

// AppName names the binary and the per-user data directories.
const AppName = "grok-cli"

// Version is the release version, overridden at build time with -ldflags.
var Version = "0.4.0"

// Timeout constants used across the application
const (
	// DefaultAPITimeout is the timeout for API requests (streaming can take a while)
	DefaultAPITimeout = 120 * time.Second
	// DefaultHealthTimeout bounds the reachability probe of `grok health`
	DefaultHealthTimeout = 15 * time.Second
)

// Application defaults
const (
	DefaultModel         = "grok-3"
	DefaultBaseURL       = "https://api.x.ai"
	DefaultSystemMessage = "You are Grok, a helpful AI assistant. Be precise and concise."
	DefaultTemperature   = 0.7
	DefaultMaxTokens     = 4096
	DefaultMaxRetries    = 3
)

// Conversation limits
const (
	// ContextMessages is how many recent messages are sent with each query.
	ContextMessages = 10
	// MaxConversations is how many conversations the history file keeps.
	MaxConversations = 50
)

// DefaultGrokModels are the models offered when none are configured
var DefaultGrokModels = []string{
	"grok-3",
	"grok-3-mini",
	"grok-2-latest",
	"grok-2",
	"grok-beta",
	"grok-vision-beta",
}
