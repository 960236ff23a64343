// Package auth provides the credential and audit primitives used by the
// federated sign-in flow: the User store, signed session credentials and a
// best-effort audit trail.
//
// Credentials:
//   - TokenService issues an access token and a refresh token per sign-in.
//     Both are HS256 JWTs whose subject is the decimal user id and whose
//     token_use claim tells them apart. Nothing is persisted.
//
// Audit:
//   - AuditLogger wraps an ActivitySink. Sink failures are logged and
//     swallowed so a broken audit store never fails a sign-in.
//
// Configuration:
//   - Settings is parsed from the environment once at startup and handed to
//     components as an immutable snapshot.
package auth
