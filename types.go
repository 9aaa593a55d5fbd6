package authflow

import "context"

// Store is the credential store adapter: the interface callers implement to
// connect the engine to their user directory. The store is the sole point of
// concurrency control; Save must persist all mutated fields of the account
// document atomically per call, with at-least last-writer-wins semantics per
// account. The engine accepts eventual-consistency races on the refresh-token
// set (a logout racing a login may fail to revoke) rather than requiring
// cross-call atomicity.
//
// Lookups return [ErrNotFound] for absent accounts. Save returns
// [ErrDuplicateEmail] when an insert collides with an existing email
// (compared case-insensitively).
type Store interface {
	// FindByEmail looks up an account by normalized (lowercase) email.
	FindByEmail(ctx context.Context, email string) (*Account, error)
	// FindByID looks up an account by its unique id.
	FindByID(ctx context.Context, id string) (*Account, error)
	// FindByResetToken looks up an account by exact reset-token match,
	// filtered to tokens whose expiry is strictly in the future.
	FindByResetToken(ctx context.Context, token string) (*Account, error)
	// Save upserts the account document. On insert it assigns Account.ID
	// when empty and returns the stored document.
	Save(ctx context.Context, account *Account) (*Account, error)
}

// Message is a single outbound notification.
type Message struct {
	To      string
	From    string
	Subject string
	Text    string
	HTML    string
}

// Mailer dispatches notifications. Implementations are injected through
// [Builder.WithMailer]; the engine never holds a process-wide mail client.
// Send failures are logged and surfaced as warnings, never as flow errors.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// RegisterResult is returned by [Engine.Register]. MailError carries the
// verification-mail dispatch failure, if any; the account was created and
// persisted regardless.
type RegisterResult struct {
	Account   AccountSummary
	MailError error
}

// LoginResult is returned by [Engine.Login] and [Engine.VerifyEmail]. The
// refresh token has been appended to the account's set and persisted before
// the result is returned.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Account      AccountSummary
}

// ResendResult is returned by [Engine.ResendVerification].
type ResendResult struct {
	MailError error
}

// ResetRequestResult is returned by [Engine.RequestPasswordReset].
type ResetRequestResult struct {
	MailError error
}
