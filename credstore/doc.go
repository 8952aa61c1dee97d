// Package credstore persists developer-account credentials for
// non-interactive logins.
//
// Keyring stores secrets in the operating system credential manager
// through 99designs/keyring, so nothing sensitive touches disk in the
// clear. Memory keeps secrets in process memory and exists for tests
// and throwaway sessions.
//
// Implementations satisfy sidegate.CredentialStore and report absent
// accounts with sidegate.ErrCredentialNotFound.
package credstore
