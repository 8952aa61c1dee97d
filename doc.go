// Package sidegate authenticates a developer account against a remote
// identity provider, keeps a single authoritative session for the lifetime
// of the process, and exposes that session to privileged developer-portal
// operations: certificate listing and revocation, app-id management, bulk
// cleanup, and staged install workflows with progress reporting.
//
// The package is built around a dependency-injected [Engine] constructed
// through [New] and the fluent [Builder]. Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// sidegate is the public surface. Everything that touches the network or
// the operating system is an injected collaborator: [IdentityProvider] and
// [PortalAPI] model the remote provider, [CredentialStore] holds account
// secrets, [Store] is generic key-value persistence used for the
// certificate cache and the saved-account list, and [ProgressSink]
// receives ordered per-stage events from multi-step operations.
//
// # Interactive challenges
//
// Logins may suspend on an out-of-band challenge code. The Engine signals
// the UI through [ChallengeNotifier] with a signed ticket and blocks the
// in-flight login until the code arrives through
// [Engine.SubmitChallengeCode] or the challenge window elapses. The
// blocking wait happens on the login goroutine only; delivery never
// blocks.
//
// # What this package must NOT do
//
//   - Re-authenticate silently. An expired session invalidates the slot
//     and surfaces [ErrSessionExpired]; the caller decides when to log in
//     again.
//   - Expose store clients or ticket encoding details in its public API.
//   - Import any sub-package that re-imports sidegate (no import cycles).
package sidegate
