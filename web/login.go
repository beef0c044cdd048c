package web

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/MrEthical07/cursos/account"
	"github.com/MrEthical07/cursos/flash"
	"github.com/MrEthical07/cursos/internal/rate"
)

const (
	msgInvalidEmail       = "O e-mail digitado não é um e-mail válido"
	msgInvalidCredentials = "E-mail ou senha inválidos"
	msgTooManyAttempts    = "Muitas tentativas de login. Tente novamente mais tarde"
)

// LoginForm renders the login page.
type LoginForm struct{ deps Deps }

// NewLoginForm builds a [LoginForm] controller.
func NewLoginForm(d Deps) Controller { return &LoginForm{deps: d} }

// Handle implements [Controller].
func (c *LoginForm) Handle(_ context.Context, req *Request) (*Response, error) {
	return renderPage(c.deps, req, "login/formulario", "Login", struct{}{})
}

// LoginProcess checks the posted credentials and marks the session as logged.
type LoginProcess struct{ deps Deps }

// NewLoginProcess builds a [LoginProcess] controller.
func NewLoginProcess(d Deps) Controller { return &LoginProcess{deps: d} }

// Handle implements [Controller].
func (c *LoginProcess) Handle(ctx context.Context, req *Request) (*Response, error) {
	email, ok := parseEmail(req.FormValue("email"))
	if !ok {
		return redirectWithFlash(req, flash.Danger, msgInvalidEmail, PathLogin), nil
	}
	secret := req.FormValue("senha")
	ip := req.ClientIP()

	if c.deps.Limiter != nil {
		err := c.deps.Limiter.CheckLogin(ctx, email, ip)
		if errors.Is(err, rate.ErrRateLimited) {
			c.deps.record(EventLoginRateLimited)
			return redirectWithFlash(req, flash.Danger, msgTooManyAttempts, PathLogin), nil
		}
		if err != nil {
			return nil, fmt.Errorf("check login throttle: %w", err)
		}
	}

	user, err := c.verify(ctx, email, secret)
	if err != nil {
		return nil, err
	}
	if user == nil {
		c.deps.record(EventLoginFailure)
		if c.deps.Limiter != nil {
			err := c.deps.Limiter.IncrementLogin(ctx, email, ip)
			if err != nil && !errors.Is(err, rate.ErrRateLimited) {
				return nil, fmt.Errorf("record failed login: %w", err)
			}
		}
		c.logRejected(ctx, email)
		return redirectWithFlash(req, flash.Danger, msgInvalidCredentials, PathLogin), nil
	}
	c.upgradeHash(ctx, user, secret)

	if c.deps.Limiter != nil {
		if err := c.deps.Limiter.ResetLogin(ctx, email); err != nil {
			c.deps.Logger.Error(err, "Failed to reset login throttle", "email", email)
		}
	}

	req.Session.Renew()
	req.Session.SetLogged(email)
	c.deps.record(EventLoginSuccess)
	c.deps.Logger.V(1).Info("Logged in", "email", email)
	return Redirect(PathList), nil
}

// verify returns the user whose password matches, or nil.
func (c *LoginProcess) verify(ctx context.Context, email, secret string) (*account.User, error) {
	if secret == "" {
		return nil, nil
	}
	user, err := c.deps.Users.FindByEmail(ctx, email)
	if errors.Is(err, account.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	ok, err := c.deps.Passwords.Verify(secret, user.PasswordHash)
	if err != nil {
		// A stored hash that does not parse can never match.
		c.deps.Logger.Error(err, "Failed to verify password", "user", user.ID)
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return user, nil
}

// upgradeHash stores a fresh hash when the current one uses weaker parameters.
// Failures are logged; the login itself already succeeded.
func (c *LoginProcess) upgradeHash(ctx context.Context, user *account.User, secret string) {
	rehasher, ok := c.deps.Passwords.(PasswordRehasher)
	if !ok {
		return
	}
	needs, err := rehasher.NeedsRehash(user.PasswordHash)
	if err != nil || !needs {
		return
	}
	hash, err := rehasher.Hash(secret)
	if err != nil {
		c.deps.Logger.Error(err, "Failed to rehash password", "user", user.ID)
		return
	}
	if err := c.deps.Users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		c.deps.Logger.Error(err, "Failed to store rehashed password", "user", user.ID)
		return
	}
	c.deps.Logger.V(1).Info("Upgraded password hash", "user", user.ID)
}

func (c *LoginProcess) logRejected(ctx context.Context, email string) {
	log := c.deps.Logger.V(1)
	if !log.Enabled() {
		return
	}
	counter, ok := c.deps.Limiter.(AttemptCounter)
	if !ok {
		log.Info("Rejected login", "email", email)
		return
	}
	attempts, err := counter.Attempts(ctx, email)
	if err != nil {
		log.Info("Rejected login", "email", email)
		return
	}
	log.Info("Rejected login", "email", email, "attempts", attempts)
}

// parseEmail accepts a bare address such as "a@b.com" and returns it normalized.
func parseEmail(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Name != "" || addr.Address != raw {
		return "", false
	}
	at := strings.LastIndexByte(raw, '@')
	if at <= 0 || !strings.Contains(raw[at+1:], ".") {
		return "", false
	}
	return account.NormalizeEmail(raw), true
}

// Logout destroys the session.
type Logout struct{ deps Deps }

// NewLogout builds a [Logout] controller.
func NewLogout(d Deps) Controller { return &Logout{deps: d} }

// Handle implements [Controller].
func (c *Logout) Handle(_ context.Context, req *Request) (*Response, error) {
	if req.Session.Logged() {
		c.deps.record(EventLogout)
	}
	req.Session.Destroy()
	return Redirect(PathLogin), nil
}
