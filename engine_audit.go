package authflow

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventLoginRateLimited      = "login_rate_limited"
	auditEventLogout                = "logout"
	auditEventRegisterSuccess       = "register_success"
	auditEventRegisterDuplicate     = "register_duplicate"
	auditEventRegisterFailure       = "register_failure"
	auditEventVerificationIssue     = "verification_issue"
	auditEventVerificationConfirm   = "verification_confirm"
	auditEventResetRequest          = "reset_request"
	auditEventResetConfirm          = "reset_confirm"
	auditEventPasswordChangeSuccess = "password_change_success"
	auditEventPasswordChangeFailure = "password_change_failure"
	auditEventSessionsRevoked       = "sessions_revoked"
	auditEventMailDispatchFailure   = "mail_dispatch_failure"
)

type auditErrorCode string

const (
	auditErrValidation         auditErrorCode = "validation"
	auditErrInvalidCredentials auditErrorCode = "invalid_credentials"
	auditErrEmailNotVerified   auditErrorCode = "email_not_verified"
	auditErrNotFound           auditErrorCode = "account_not_found"
	auditErrDuplicate          auditErrorCode = "duplicate_email"
	auditErrInvalidOrExpired   auditErrorCode = "invalid_or_expired"
	auditErrAlreadyVerified    auditErrorCode = "already_verified"
	auditErrInvalidToken       auditErrorCode = "invalid_token"
	auditErrRateLimited        auditErrorCode = "rate_limited"
	auditErrInternal           auditErrorCode = "internal_error"
)

func classifyAuditError(err error) auditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrEmailNotVerified):
		return auditErrEmailNotVerified
	case errors.Is(err, ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrDuplicateEmail):
		return auditErrDuplicate
	case errors.Is(err, ErrInvalidOrExpired):
		return auditErrInvalidOrExpired
	case errors.Is(err, ErrAlreadyVerified):
		return auditErrAlreadyVerified
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	default:
		return auditErrInternal
	}
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := classifyAuditError(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}
