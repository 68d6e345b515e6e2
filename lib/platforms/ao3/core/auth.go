package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"ao3-go/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// AuthState is the logged in session of a client. The zero value is
// logged out.
type AuthState struct {
	mu       sync.RWMutex
	token    string
	username string
}

// Token is the session authenticity token, empty when logged out.
func (s *AuthState) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Username is the account the session belongs to, empty when logged out.
func (s *AuthState) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *AuthState) LoggedIn() bool {
	return s.Token() != ""
}

func (s *AuthState) set(token, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.username = username
}

func (s *AuthState) clear() {
	s.set("", "")
}

// LoginToken reads the authenticity token out of a page's forms.
func LoginToken(doc *goquery.Document) string {
	return doc.Find("input[name=authenticity_token]").First().AttrOr("value", "")
}

// CSRFToken reads the page level token from the csrf meta tag.
func CSRFToken(doc *goquery.Document) string {
	return doc.Find("meta[name=csrf-token]").First().AttrOr("content", "")
}

func (c *Client) fetchDocument(ctx context.Context, route Route) (*goquery.Document, error) {
	text, err := c.Text(ctx, route, RequestOptions{})
	if err != nil {
		return nil, err
	}
	return htmlutil.Parse(text)
}

// Login signs in with a username and password. On success the session
// token and username are kept in State.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	if username == "" || password == "" {
		span.SetStatus(codes.Error, "incomplete credentials")
		return ErrInvalidCredentials
	}

	loginRoute := c.route("GET", "/users/login", nil)
	doc, err := c.fetchDocument(ctx, loginRoute)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}
	token := LoginToken(doc)
	if token == "" {
		span.SetStatus(codes.Error, ErrLoginTokenMissing.Error())
		return ErrLoginTokenMissing
	}

	res, err := c.Do(ctx, c.route("POST", "/users/login", nil), RequestOptions{
		Form: url.Values{
			"user[login]":        {username},
			"user[password]":     {password},
			"authenticity_token": {token},
		},
		NoRedirect: true,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post login request")
		return err
	}

	// a rejected login re-renders the form or bounces back to it
	landing, redirected := res.Location()
	if !redirected ||
		strings.HasPrefix(landing.Path, "/users/login") ||
		strings.HasPrefix(landing.Path, "/auth_error") {
		span.SetStatus(codes.Error, ErrInvalidCredentials.Error())
		return ErrInvalidCredentials
	}

	doc, err = c.fetchDocument(ctx, Route{Method: "GET", Path: landing.Path, URL: landing.String()})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page after login")
		return err
	}
	sessionToken := CSRFToken(doc)
	if sessionToken == "" {
		sessionToken = LoginToken(doc)
	}
	if sessionToken == "" {
		err := fmt.Errorf("logged in but the landing page had no authenticity token")
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	c.State.set(sessionToken, username)
	return nil
}

// Logout ends the session. It does nothing when not logged in.
func (c *Client) Logout(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Logout")
	defer span.End()

	token := c.State.Token()
	if token == "" {
		return nil
	}
	_, err := c.Do(ctx, c.route("POST", "/users/logout", nil), RequestOptions{
		Form: url.Values{
			"_method":            {"delete"},
			"authenticity_token": {token},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to log out")
		return err
	}
	c.State.clear()
	return nil
}
