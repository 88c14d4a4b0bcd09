package laget_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-laget/internal/config"
	"github.com/tartampluch/go-laget/internal/engine"
	"github.com/tartampluch/go-laget/internal/laget"
)

// -----------------------------------------------------------------------------
// Portal Stub
// -----------------------------------------------------------------------------

const loginPageHTML = `<html><body><form>
<input name="__RequestVerificationToken" type="hidden" value="csrf-token-123"/>
<input id="Referer" name="Referer" type="hidden" value="/"/>
</form></body></html>`

const stubStartPage = `<html><body>
<a href="/Common/Rsvp/ModalContent?pk=12345&childId=678&site=exempelklubb">Anmälan</a>
</body></html>`

const stubModal = `<html><body>
<p class="invitation__title">Match mot Hammarby</p>
<p class="invitation__subTitle">P2014 Blå</p>
<p class="invitation__subTitle">Anmälning för Erik</p>
<div><span class="invitation__label--noWidth">Datum:</span><span>16 november</span></div>
<div><span class="invitation__label--noWidth">Tid:</span><span>10:00-11:00</span></div>
</body></html>`

// newPortalStub spins up an httptest server that mimics the portal's login
// flow and start page. It records the posted login form for assertions.
func newPortalStub(t *testing.T, acceptLogin bool) (*httptest.Server, *map[string]string) {
	t.Helper()
	posted := make(map[string]string)

	mux := http.NewServeMux()
	mux.HandleFunc(config.PortalLoginURL, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(loginPageHTML))
			return
		}
		require.NoError(t, r.ParseForm())
		for key := range r.PostForm {
			posted[key] = r.PostForm.Get(key)
		}
		if !acceptLogin {
			// A rejected login lands back on the login form.
			_, _ = w.Write([]byte(loginPageHTML))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: "session-1"})
		http.Redirect(w, r, "/", http.StatusFound)
	})
	mux.HandleFunc(config.PortalModalURL, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get(config.ParamPK) == "" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(stubModal))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(stubStartPage))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &posted
}

// -----------------------------------------------------------------------------
// Test Cases
// -----------------------------------------------------------------------------

func TestLogin_PostsCSRFTokenAndCredentials(t *testing.T) {
	srv, posted := newPortalStub(t, true)
	c := laget.NewClient("user@example.com", "hemligt")
	c.BaseURL = srv.URL

	require.NoError(t, c.Login(context.Background()))

	form := *posted
	assert.Equal(t, "csrf-token-123", form[config.FormFieldCSRF])
	assert.Equal(t, "/", form[config.FormFieldReferer])
	assert.Equal(t, "user@example.com", form[config.FormFieldEmail])
	assert.Equal(t, "hemligt", form[config.FormFieldPassword])
}

func TestLogin_RejectedCredentials(t *testing.T) {
	// Scenario: the portal re-renders the login form instead of redirecting.
	srv, _ := newPortalStub(t, false)
	c := laget.NewClient("user@example.com", "fel")
	c.BaseURL = srv.URL

	err := c.Login(context.Background())
	assert.Error(t, err)
}

func TestLogin_MissingCSRFToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>maintenance</body></html>`))
	}))
	t.Cleanup(srv.Close)

	c := laget.NewClient("user@example.com", "hemligt")
	c.BaseURL = srv.URL

	err := c.Login(context.Background())
	assert.Error(t, err)
}

func TestRegistrationLinks_RequiresLogin(t *testing.T) {
	c := laget.NewClient("user@example.com", "hemligt")

	_, err := c.RegistrationLinks(context.Background())
	assert.Error(t, err)
}

func TestFetchAll_EndToEnd(t *testing.T) {
	// Login, link discovery and modal scraping in one pass.
	srv, _ := newPortalStub(t, true)
	c := laget.NewClient("user@example.com", "hemligt")
	c.BaseURL = srv.URL

	raws, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, raws, 1)

	assert.Equal(t, "12345", raws[0].PK)
	assert.Equal(t, "678", raws[0].ChildID)
	assert.Equal(t, "exempelklubb", raws[0].Site)
	assert.Equal(t, "Match mot Hammarby", raws[0].Title)
	assert.Equal(t, "Erik", raws[0].ChildName)
	assert.Equal(t, "10:00-11:00", raws[0].Time)
}

func TestFilterPractice(t *testing.T) {
	raws := []engine.RawRegistration{
		{Title: "Match mot Hammarby"},
		{Title: "Träning"},
		{Title: "träning "},
		{Title: "Cupspel"},
	}

	kept, excluded := laget.FilterPractice(raws)

	assert.Equal(t, 2, excluded)
	require.Len(t, kept, 2)
	assert.Equal(t, "Match mot Hammarby", kept[0].Title)
	assert.Equal(t, "Cupspel", kept[1].Title)
}
