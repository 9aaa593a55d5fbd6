// Package authflow provides an embeddable account authentication and session
// lifecycle engine: registration with email ownership proof, credential
// verification, JWT access/refresh token issuance, and credential recovery.
//
// The package is designed to sit behind any transport: Engine methods are safe
// to call from multiple goroutines after initialization through [Builder.Build],
// and every externally observable outcome is a typed sentinel error that
// transports map to status codes via [HTTPStatus].
//
// # Architecture boundaries
//
// authflow owns the state-transition logic and its security invariants (token
// expiry, single-use codes, refresh-token revocation). It deliberately does NOT
// own:
//
//   - the user directory itself: account records are read and written through
//     the injected [Store] collaborator (upsert semantics, last-writer-wins per
//     account document);
//   - outbound email delivery: notifications go through the injected [Mailer]
//     and are best-effort, meaning a failed send never rolls back a persisted
//     state change and surfaces as a warning on an otherwise successful result;
//   - HTTP routing and cookie handling: the transport extracts credentials,
//     stores the two token artifacts, and maps errors with [HTTPStatus].
//
// # Session model
//
// A successful login (or first email verification, which doubles as a login)
// mints a short-lived access JWT and a longer-lived refresh JWT with a distinct
// signing scope. Refresh tokens are tracked per account in an owned
// [RefreshTokenSet]; only this package can add or remove entries, so revocation
// on logout or password change cannot be bypassed by other components. Expiry
// of verification codes and reset tokens is checked lazily at consume time;
// there are no background sweepers.
//
// # What this package must NOT do
//
//   - Expose password hashes outside the hashing pipeline.
//   - Retry store writes or mail sends.
//   - Keep mutable per-account state in process; the Store is the sole point
//     of concurrency control.
package authflow
