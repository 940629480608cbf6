package artsy

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/amonks/artsy/data"
)

// AuthResult is a successful signin or signup: the account, and the session
// tokens the server set on the response.
type AuthResult struct {
	User   data.User
	Tokens map[data.Kind]string
}

type authResponse struct {
	User    data.User `json:"user"`
	Message string    `json:"message"`
}

type userWrapper struct {
	User *data.User `json:"user"`
}

// SignUp creates an account.
func (c *Client) SignUp(ctx context.Context, reg data.Registration) (*AuthResult, error) {
	payload := map[string]string{
		"fullName": strings.TrimSpace(reg.FullName),
		"email":    strings.TrimSpace(reg.Email),
		"password": strings.TrimSpace(reg.Password),
	}
	if avatar := strings.TrimSpace(reg.ProfileImageURL); avatar != "" {
		payload["profileImageURL"] = avatar
	}
	return c.authenticate(ctx, "user/signup", payload)
}

// SignIn starts a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.authenticate(ctx, "user/signin", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, payload map[string]string) (*AuthResult, error) {
	resp, err := c.do(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, err
	}
	tokens := ExtractTokens(resp.Header)

	body, err := decode[authResponse](resp, path)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: body.User, Tokens: tokens}, nil
}

// ExtractTokens finds the session tokens among the Set-Cookie headers of a
// response. A header counts only if it starts with the token's name followed
// by "="; the value runs up to the next ";". Later headers win.
func ExtractTokens(header http.Header) map[data.Kind]string {
	tokens := map[data.Kind]string{}
	for _, cookie := range header.Values("Set-Cookie") {
		for _, kind := range data.Kinds {
			prefix := string(kind) + "="
			if !strings.HasPrefix(cookie, prefix) {
				continue
			}
			value := strings.TrimPrefix(cookie, prefix)
			if i := strings.IndexByte(value, ';'); i >= 0 {
				value = value[:i]
			}
			tokens[kind] = value
		}
	}
	return tokens
}

// Me returns the account the stored tokens belong to.
func (c *Client) Me(ctx context.Context) (*data.User, error) {
	resp, err := c.do(ctx, http.MethodGet, "user/me", nil, nil)
	if err != nil {
		return nil, err
	}
	body, err := decode[userWrapper](resp, "user/me")
	if err != nil {
		return nil, err
	}
	if body.User == nil {
		return nil, fmt.Errorf("user/me: no user in response: %w", ErrDecode)
	}
	return body.User, nil
}

// SignOut ends the session on the server. It does not touch the stored tokens.
func (c *Client) SignOut(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "user/signout", nil, nil)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// DeleteAccount deletes the signed-in account on the server. It does not touch
// the stored tokens.
func (c *Client) DeleteAccount(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodDelete, "user/delete", nil, nil)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}
