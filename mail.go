package authflow

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Mail composition for the verification and recovery flows. Dispatch is
// best-effort: a failed send never rolls back the state that was already
// persisted, it only surfaces as a MailError on the result and as an audit
// event.

func (e *Engine) verificationMessage(account *Account, code string) Message {
	app := e.config.Mail.AppName

	text := fmt.Sprintf(
		"Hi %s,\n\nYour %s verification code is %s. It expires in %s.\n\nIf you did not create this account, ignore this message.\n",
		account.Name, app, code, formatTTL(e.config.Verification.CodeTTL),
	)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your %s verification code is <strong>%s</strong>. It expires in %s.</p><p>If you did not create this account, ignore this message.</p>",
		htmlEscape(account.Name), htmlEscape(app), code, formatTTL(e.config.Verification.CodeTTL),
	)

	return Message{
		To:      account.Email,
		From:    e.config.Mail.From,
		Subject: fmt.Sprintf("%s verification code", app),
		Text:    text,
		HTML:    html,
	}
}

func (e *Engine) resetMessage(account *Account, token string) Message {
	app := e.config.Mail.AppName
	link := resetLink(e.config.Mail.ResetURL, token)

	text := fmt.Sprintf(
		"Hi %s,\n\nA password reset was requested for your %s account. Reset it here:\n\n%s\n\nThe link expires in %s. If you did not request this, ignore this message.\n",
		account.Name, app, link, formatTTL(e.config.Reset.TokenTTL),
	)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>A password reset was requested for your %s account. <a href=\"%s\">Reset your password</a>.</p><p>The link expires in %s. If you did not request this, ignore this message.</p>",
		htmlEscape(account.Name), htmlEscape(app), link, formatTTL(e.config.Reset.TokenTTL),
	)

	return Message{
		To:      account.Email,
		From:    e.config.Mail.From,
		Subject: fmt.Sprintf("%s password reset", app),
		Text:    text,
		HTML:    html,
	}
}

// dispatchMail sends msg and downgrades any failure to a returned warning.
func (e *Engine) dispatchMail(ctx context.Context, msg Message, accountID string) error {
	err := e.mailer.Send(ctx, msg)
	if err == nil {
		return nil
	}

	e.metricInc(MetricMailDispatchFailure)
	e.emitAudit(ctx, auditEventMailDispatchFailure, false, accountID, msg.To, nil, func() map[string]string {
		return map[string]string{
			"subject": msg.Subject,
			"cause":   err.Error(),
		}
	})

	return fmt.Errorf("mail dispatch: %w", err)
}

func resetLink(base, token string) string {
	if base == "" {
		return token
	}
	if strings.Contains(base, "?") {
		return base + "&token=" + token
	}
	return base + "?token=" + token
}

func formatTTL(d time.Duration) string {
	s := d.String()
	s = strings.TrimSuffix(s, "0s")
	s = strings.TrimSuffix(s, "0m")
	if s == "" {
		return d.String()
	}
	return s
}

func htmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}
