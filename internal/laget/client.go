// Package laget is the site-specific collaborator that harvests event
// registrations from the laget.se portal. It handles session login and the
// invitation modal scraping, producing raw records for normalization.
package laget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tartampluch/go-laget/internal/config"
	"github.com/tartampluch/go-laget/internal/engine"
)

// RegistrationLink identifies one invitation modal on the portal start page.
type RegistrationLink struct {
	PK      string
	ChildID string
	Site    string
}

// Client maintains an authenticated portal session. The cookie jar carries
// the login session across requests.
type Client struct {
	BaseURL  string
	Email    string
	Password string

	http     *http.Client
	loggedIn bool
}

// NewClient creates a portal client with a fresh cookie jar.
func NewClient(email, password string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL:  config.PortalBaseURL,
		Email:    email,
		Password: password,
		http: &http.Client{
			Jar:     jar,
			Timeout: config.HTTPTimeout,
		},
	}
}

// Login performs the portal's form-based login: it loads the login page,
// extracts the CSRF token and referer hidden inputs, and posts the
// credentials. The session cookie lands in the jar on success.
func (c *Client) Login(ctx context.Context) error {
	slog.Info(config.MsgLoginStart, config.LogKeyComponent, config.CompScraper)

	loginURL := c.BaseURL + config.PortalLoginURL
	doc, err := c.getDocument(ctx, loginURL)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrLoginPage, err)
	}

	csrf, exists := doc.Find(config.SelCSRFInput).Attr("value")
	if !exists || csrf == "" {
		return errors.New(config.ErrCSRFMissing)
	}
	referer := doc.Find(config.SelRefererInput).AttrOr("value", "")

	form := url.Values{
		config.FormFieldCSRF:      {csrf},
		config.FormFieldReferer:   {referer},
		config.FormFieldEmail:     {c.Email},
		config.FormFieldPassword:  {c.Password},
		config.FormFieldKeepAlive: {config.FormValueKeepAlive},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set(config.HeaderContentType, config.MimeFormURLEncoded)
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrLoginRejected, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// A successful login redirects away from the login form.
	if resp.StatusCode != http.StatusOK || resp.Request.URL.Path == config.PortalLoginURL {
		slog.Warn(config.ErrLoginRejected,
			config.LogKeyComponent, config.CompScraper,
			config.LogKeyStatus, resp.StatusCode,
		)
		return errors.New(config.ErrLoginRejected)
	}

	c.loggedIn = true
	slog.Info(config.MsgLoginOK, config.LogKeyComponent, config.CompScraper)
	return nil
}

// RegistrationLinks scrapes the start page for invitation modal links.
func (c *Client) RegistrationLinks(ctx context.Context) ([]RegistrationLink, error) {
	if !c.loggedIn {
		return nil, errors.New(config.ErrNotLoggedIn)
	}

	doc, err := c.getDocument(ctx, c.BaseURL)
	if err != nil {
		return nil, err
	}

	links := parseRegistrationLinks(doc)
	slog.Info(config.MsgLinksFound,
		config.LogKeyComponent, config.CompScraper,
		config.LogKeyCount, len(links),
	)
	return links, nil
}

// RegistrationDetails fetches and parses one invitation modal.
func (c *Client) RegistrationDetails(ctx context.Context, link RegistrationLink) (engine.RawRegistration, error) {
	u, err := url.Parse(c.BaseURL + config.PortalModalURL)
	if err != nil {
		return engine.RawRegistration{}, err
	}
	q := u.Query()
	q.Set(config.ParamPK, link.PK)
	q.Set(config.ParamChildID, link.ChildID)
	q.Set(config.ParamSite, link.Site)
	u.RawQuery = q.Encode()

	doc, err := c.getDocument(ctx, u.String())
	if err != nil {
		return engine.RawRegistration{}, fmt.Errorf("%s: %w", config.ErrModalFetch, err)
	}

	raw := parseInvitation(doc)
	raw.PK = link.PK
	raw.ChildID = link.ChildID
	raw.Site = link.Site
	return raw, nil
}

// FetchAll logs in if needed and collects the details of every registration.
// Per-record fetch failures are logged and skipped, never fatal to the run.
func (c *Client) FetchAll(ctx context.Context) ([]engine.RawRegistration, error) {
	if !c.loggedIn {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	links, err := c.RegistrationLinks(ctx)
	if err != nil {
		return nil, err
	}

	log := slog.With(config.LogKeyComponent, config.CompScraper)
	registrations := make([]engine.RawRegistration, 0, len(links))
	for _, link := range links {
		raw, err := c.RegistrationDetails(ctx, link)
		if err != nil {
			log.Warn(config.MsgDetailFailed,
				config.LogKeyUID, engine.DeriveUID(link.PK, link.ChildID),
				config.LogKeyError, err,
			)
			continue
		}
		log.Debug(config.MsgDetailFetched, config.LogKeyTitle, raw.Title)
		registrations = append(registrations, raw)
	}
	return registrations, nil
}

// getDocument GETs a URL and parses the response body as HTML.
func (c *Client) getDocument(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// FilterPractice drops practice events (Träning) from the raw list and
// returns the excluded count. The portal mixes practice sessions into the
// registration list; most users only want matches and special events.
func FilterPractice(raws []engine.RawRegistration) ([]engine.RawRegistration, int) {
	kept := make([]engine.RawRegistration, 0, len(raws))
	for _, raw := range raws {
		if strings.EqualFold(strings.TrimSpace(raw.Title), config.TitlePractice) {
			continue
		}
		kept = append(kept, raw)
	}
	excluded := len(raws) - len(kept)
	if excluded > 0 {
		slog.Info(config.MsgPracticeSkip,
			config.LogKeyComponent, config.CompScraper,
			config.LogKeyExcluded, excluded,
		)
	}
	return kept, excluded
}
