// Package session tracks who is signed in.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amonks/artsy/artsy"
	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/state"
	"github.com/amonks/artsy/tokens"
	"github.com/rs/zerolog/log"
)

// The messages shown for a failed signin or signup. They never carry the
// server's detail, so a failed signin doesn't reveal which field was wrong.
const (
	SignInFailed = "Username or Password is incorrect"
	SignUpFailed = "Registration failed"
)

// DefaultRetryDelay is the pause between attempts in ValidateSessionWithRetry.
const DefaultRetryDelay = 500 * time.Millisecond

// State is one of Idle, Loading, Success or Error.
type State interface{ isState() }

// Idle means there is no known user.
type Idle struct{}

// Loading means an auth request is in flight.
type Loading struct{}

// Success means User is signed in.
type Success struct{ User data.User }

// Error means the last signin or signup failed.
type Error struct{ Message string }

func (Idle) isState()    {}
func (Loading) isState() {}
func (Success) isState() {}
func (Error) isState()   {}

// Manager owns the session state and is the only writer of the token store.
type Manager struct {
	client     *artsy.Client
	tokens     *tokens.Store
	retryDelay time.Duration

	state *state.Value[State]
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetryDelay replaces DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(m *Manager) { m.retryDelay = d }
}

// New creates a Manager in the Idle state.
func New(client *artsy.Client, tokens *tokens.Store, opts ...Option) *Manager {
	m := &Manager{
		client:     client,
		tokens:     tokens,
		retryDelay: DefaultRetryDelay,
		state:      state.New[State](Idle{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Manager) State() State {
	return m.state.Get()
}

// Subscribe delivers the current state and every change to it.
func (m *Manager) Subscribe() (<-chan State, func()) {
	return m.state.Subscribe()
}

// Authenticated reports whether the session has been confirmed by the server.
func (m *Manager) Authenticated() bool {
	_, ok := m.state.Get().(Success)
	return ok
}

// User returns the signed-in user, if there is one.
func (m *Manager) User() (data.User, bool) {
	if s, ok := m.state.Get().(Success); ok {
		return s.User, true
	}
	return data.User{}, false
}

// SignIn starts a session. On failure the state becomes Error(SignInFailed)
// and the stored tokens are left as they were.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	m.state.Set(Loading{})

	result, err := m.client.SignIn(ctx, email, password)
	if err != nil {
		log.Warn().Err(err).Msg("signin failed")
		m.state.Set(Error{Message: SignInFailed})
		return fmt.Errorf("signin: %w", err)
	}
	return m.authenticated("signin", result)
}

// SignUp creates an account and signs into it. Invalid input fails without a
// request, with the validation message as the Error state.
func (m *Manager) SignUp(ctx context.Context, reg data.Registration) error {
	if err := reg.Validate(); err != nil {
		m.state.Set(Error{Message: err.Error()})
		return fmt.Errorf("signup: %w", err)
	}

	m.state.Set(Loading{})

	result, err := m.client.SignUp(ctx, reg)
	if err != nil {
		log.Warn().Err(err).Str("message", artsy.Message(err)).Msg("signup failed")
		m.state.Set(Error{Message: SignUpFailed})
		return fmt.Errorf("signup: %w", err)
	}
	return m.authenticated("signup", result)
}

func (m *Manager) authenticated(op string, result *artsy.AuthResult) error {
	if err := m.tokens.SetAll(result.Tokens); err != nil {
		log.Error().Err(err).Str("op", op).Msg("error saving tokens")
		m.state.Set(Error{Message: SignInFailed})
		return fmt.Errorf("%s: saving tokens: %w", op, err)
	}
	log.Info().
		Str("op", op).
		Str("user", result.User.ID).
		Int("tokens", len(result.Tokens)).
		Msg("signed in")
	m.state.Set(Success{User: result.User})
	return nil
}

// Reset returns to Idle, for leaving a signin or signup form.
func (m *Manager) Reset() {
	m.state.Set(Idle{})
}

// ValidateSession asks the server who the stored tokens belong to. Success
// keeps or enters Success; anything else clears the tokens and goes Idle.
// An already-successful session skips the Loading state.
func (m *Manager) ValidateSession(ctx context.Context) error {
	return m.ValidateSessionWithRetry(ctx, 1)
}

// ValidateSessionWithRetry is ValidateSession, but tries up to maxAttempts
// times, pausing between attempts, before giving up. A rejection by the
// server is final and is not retried.
func (m *Manager) ValidateSessionWithRetry(ctx context.Context, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if !m.tokens.Present() {
		log.Debug().Msg("no stored session")
		return m.expire(nil)
	}
	if !m.Authenticated() {
		m.state.Set(Loading{})
	}

	var err error
	for attempt := 1; ; attempt++ {
		var user *data.User
		if user, err = m.client.Me(ctx); err == nil {
			m.state.Set(Success{User: *user})
			return nil
		}
		if errors.Is(err, artsy.ErrUnauthorized) || attempt >= maxAttempts {
			break
		}

		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", m.retryDelay).Msg("session check failed")
		if waitErr := sleep(ctx, m.retryDelay); waitErr != nil {
			err = waitErr
			break
		}
	}

	log.Info().Err(err).Msg("stored session is no longer valid")
	return m.expire(fmt.Errorf("validate session: %w", err))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// expire clears the tokens and goes Idle, returning cause joined with any
// error clearing them.
func (m *Manager) expire(cause error) error {
	clearErr := m.tokens.Clear()
	if clearErr != nil {
		log.Error().Err(clearErr).Msg("error clearing tokens")
	}
	m.state.Set(Idle{})
	return errors.Join(cause, clearErr)
}

// RefreshUserProfile re-fetches the signed-in user. Failure leaves the state
// alone.
func (m *Manager) RefreshUserProfile(ctx context.Context) error {
	user, err := m.client.Me(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("error refreshing profile")
		return fmt.Errorf("refresh profile: %w", err)
	}
	m.state.Set(Success{User: *user})
	return nil
}

// SignOut ends the session on the server, then clears the tokens and goes
// Idle whatever the server said.
func (m *Manager) SignOut(ctx context.Context) error {
	err := m.client.SignOut(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("remote signout failed")
		err = fmt.Errorf("signout: %w", err)
	}
	return m.expire(err)
}

// DeleteAccount deletes the account on the server, then clears the tokens and
// goes Idle whatever the server said. The server's error is returned so the
// caller can tell the user the account may still exist.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	err := m.client.DeleteAccount(ctx)
	if err != nil {
		log.Error().Err(err).Msg("remote account deletion failed")
		err = fmt.Errorf("delete account: %w", err)
	} else {
		log.Info().Msg("account deleted")
	}
	return m.expire(err)
}
