package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

const (
	loginPath  = "/accounts/login/"
	browsePath = "/customer/browse/"

	csrfFieldName   = "csrfmiddlewaretoken"
	csrfCookieName  = "csrftoken"
	loginFormMarker = "this_is_the_login_form"

	// the reseller id is this segment of the post-login redirect path
	resellerIDSegment = 5
)

var (
	ErrAuthenticationFailed = errors.New("Authentication failed. Bad username or password.")
	ErrMissingCSRFToken     = errors.New("unable to find CSRF token in portal login page")
	ErrMissingSessionCookie = errors.New("unable to find set-cookie header in login response")
	ErrAccountDiscovery     = errors.New("unable to discover reseller id")
	ErrMalformedRedirect    = errors.New("unable to find reseller id in redirect location")
)

// session is the pair of values every authenticated request needs: the portal
// session cookie and the cookie-borne CSRF token. Sessions live in memory
// only and are never reused across mutations.
type session struct {
	cookie    string
	csrfToken string
}

// fetchCSRFTokens loads the login page and extracts the two independent
// anti-forgery values the portal requires: the hidden form field submitted in
// the login body, and the csrftoken cookie echoed back as a header.
func (c *Client) fetchCSRFTokens(ctx context.Context) (formToken, cookieToken string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+loginPath, nil)
	if err != nil {
		return "", "", fmt.Errorf("create login page request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch login page: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("parse login page: %w", err)
	}
	formToken, _ = doc.Find("input[name=" + csrfFieldName + "]").Attr("value")

	for _, cookie := range resp.Cookies() {
		if cookie.Name == csrfCookieName {
			cookieToken = cookie.Value
		}
	}

	if formToken == "" || cookieToken == "" {
		return "", "", ErrMissingCSRFToken
	}

	return formToken, cookieToken, nil
}

// authenticate submits the login form with redirects disabled. The portal
// answers a successful login with a 302 carrying the session cookie; any
// other status means the credentials were refused.
func (c *Client) authenticate(ctx context.Context) (session, error) {
	formToken, cookieToken, err := c.fetchCSRFTokens(ctx)
	if err != nil {
		return session{}, err
	}

	form := url.Values{}
	form.Set(csrfFieldName, formToken)
	form.Set("username", c.cfg.Username)
	form.Set("password", c.cfg.Password)
	form.Set(loginFormMarker, "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return session{}, fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.baseURL+loginPath)
	req.Header.Set("Cookie", csrfCookieName+"="+cookieToken)

	resp, err := c.httpNoRedirect.Do(req)
	if err != nil {
		return session{}, fmt.Errorf("submit login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return session{}, ErrAuthenticationFailed
	}

	setCookie := resp.Header.Get("Set-Cookie")
	if setCookie == "" {
		return session{}, ErrMissingSessionCookie
	}
	cookie := strings.TrimSpace(strings.SplitN(setCookie, ";", 2)[0])

	sess := session{cookie: cookie, csrfToken: cookieToken}

	if _, err := c.resolveResellerID(ctx, sess); err != nil {
		return session{}, err
	}

	log.Debug().Str("username", c.cfg.Username).Msg("portal session established")

	return sess, nil
}

// resolveResellerID returns the account's reseller id, discovering it on
// first use by parsing the browse redirect. The id is cached for the life of
// the client; concurrent first calls are not guarded beyond the mutex, so
// callers are expected to authenticate once before fanning out.
func (c *Client) resolveResellerID(ctx context.Context, sess session) (string, error) {
	c.resellerMu.Lock()
	defer c.resellerMu.Unlock()

	if c.resellerID != "" {
		return c.resellerID, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+browsePath, nil)
	if err != nil {
		return "", fmt.Errorf("create browse request: %w", err)
	}
	req.Header.Set("Cookie", sess.cookie)

	resp, err := c.httpNoRedirect.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch browse redirect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return "", fmt.Errorf("%w: portal returned status %d", ErrAccountDiscovery, resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", ErrMalformedRedirect
	}

	segments := strings.Split(location, "/")
	if len(segments) <= resellerIDSegment || segments[resellerIDSegment] == "" {
		return "", ErrMalformedRedirect
	}

	c.resellerID = segments[resellerIDSegment]
	log.Debug().Str("reseller_id", c.resellerID).Msg("discovered reseller id")

	return c.resellerID, nil
}

// ResetResellerID drops the cached reseller id so the next authenticated
// call re-discovers it.
func (c *Client) ResetResellerID() {
	c.resellerMu.Lock()
	defer c.resellerMu.Unlock()
	c.resellerID = ""
}
