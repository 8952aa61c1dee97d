// Package ticket signs and verifies challenge tickets.
//
// A ticket binds a pending-challenge request id to the challenge window.
// The Engine hands the ticket to the UI when a login suspends on a second
// factor; the UI must return it verbatim with the code. Verification keeps
// a UI surface from routing codes into logins it was never shown.
//
// # What this package must NOT do
//
//   - Carry account identifiers or secrets in claims.
//   - Accept tokens signed with an algorithm other than the configured one.
package ticket
