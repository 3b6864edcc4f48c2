// Package cmd implements the CLI commands for the Grok CLI application.
//
// # Architecture
//
// ## Core CLI
//
//   - root.go: App struct, cobra command setup, flags and one-shot queries
//   - login.go: API key commands (login, logout, status)
//   - config_cmd.go: config show, init and path
//   - sessions_cmd.go: list, show and delete named sessions
//   - health.go: configuration and connectivity checks
//
// ## Interactive Mode
//
//   - interactive.go: InteractiveSession, the read-eval loop around the
//     line editor, and the slash-command suggestions it offers
//   - slash_commands.go: handlers for /model, /save, /resume and the rest
//
// # Key Components
//
// ## App
//
// The App struct holds the configuration and the factories for the API
// client and the line editor. Tests replace both factories.
//
// ## InteractiveSession
//
// Manages one interactive chat:
//   - the conversation, sent to the API with the system prompt and the
//     most recent messages
//   - the saved conversation history and named sessions
//   - Ctrl+C, which quits at the prompt and cancels a running request
//
// # Usage
//
//	func main() {
//	    cmd.Execute()
//	}
package cmd
