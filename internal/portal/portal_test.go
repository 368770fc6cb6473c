package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/mdrzasync/internal/common"
	"github.com/dmitrijs2005/mdrzasync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePortal emulates the login and distance forms: a session cookie, a
// participant id and a csrf token that rotates after every accepted entry.
type fakePortal struct {
	mu        sync.Mutex
	token     int
	submitted []string
}

func (f *fakePortal) page(w http.ResponseWriter) {
	fmt.Fprintf(w, `<html><body><form>
<input type="hidden" name="csrf" value="tok-%d">
<input type="hidden" name="form_data[tn][value]" value="4711"/>
<input type="text" name="form_data[distance][value]">
</form></body></html>`, f.token)
}

func (f *fakePortal) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("username") != "alice" || r.FormValue("passwort") != "secret" ||
			r.FormValue("btnLogin") != "btnLogin" {
			http.Error(w, "denied", http.StatusForbidden)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "s-alice", Path: "/"})
		f.page(w)
	})
	mux.HandleFunc("/entry", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, err := r.Cookie("sid"); err != nil || c.Value != "s-alice" {
			http.Error(w, "no session", http.StatusUnauthorized)
			return
		}
		if r.FormValue("csrf") != fmt.Sprintf("tok-%d", f.token) {
			http.Error(w, "stale token", http.StatusBadRequest)
			return
		}
		f.submitted = append(f.submitted, strings.Join([]string{
			r.FormValue("form_data[tn][value]"),
			r.FormValue("form_data[distdate][]"),
			r.FormValue("form_data[distance][value]"),
			r.FormValue("form_data[distance][desc]"),
			r.FormValue("distsub"),
		}, "|"))
		f.token++
		f.page(w)
	})
	return mux
}

func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(srv.URL, "/login", "entry", 5*time.Second, logging.Discard())
	require.NoError(t, err)
	return c
}

func TestClient_LoginAndSubmitRotatesToken(t *testing.T) {
	fp := &fakePortal{}
	srv := httptest.NewServer(fp.handler())
	defer srv.Close()

	ctx := context.Background()
	sess, page, err := newClient(t, srv).Login(ctx, "alice", "secret")
	require.NoError(t, err)

	token, err := page.CSRFToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-0", token)
	pid, err := page.ParticipantID()
	require.NoError(t, err)
	assert.Equal(t, "4711", pid)

	page, err = sess.Submit(ctx, Entry{Day: "2024-05-07", Kilometers: 8, ParticipantID: pid}, token)
	require.NoError(t, err)
	token, err = page.CSRFToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	_, err = sess.Submit(ctx, Entry{Day: "2024-05-08", Kilometers: 12.5, ParticipantID: pid}, token)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"4711|2024-05-07|8|Kilometer|1",
		"4711|2024-05-08|12.5|Kilometer|1",
	}, fp.submitted)
}

func TestSession_StaleTokenIsSubmissionError(t *testing.T) {
	fp := &fakePortal{}
	srv := httptest.NewServer(fp.handler())
	defer srv.Close()

	sess, _, err := newClient(t, srv).Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	_, err = sess.Submit(context.Background(), Entry{Day: "2024-05-07", Kilometers: 1, ParticipantID: "4711"}, "tok-9")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSubmission)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Empty(t, fp.submitted)
}

func TestClient_LoginRejected(t *testing.T) {
	srv := httptest.NewServer((&fakePortal{}).handler())
	defer srv.Close()

	_, _, err := newClient(t, srv).Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAuth)
	assert.NotErrorIs(t, err, common.ErrSubmission)
}

func TestClient_SessionsDoNotShareCookies(t *testing.T) {
	fp := &fakePortal{}
	srv := httptest.NewServer(fp.handler())
	defer srv.Close()

	c := newClient(t, srv)
	s1, _, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	s2, _, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.NotSame(t, s1.http.Jar, s2.http.Jar)

	// A client without the session cookie is turned away.
	bare := &Session{client: c, http: &http.Client{Transport: http.DefaultTransport}}
	_, err = bare.Submit(context.Background(), Entry{Day: "2024-05-07", Kilometers: 1, ParticipantID: "4711"}, "tok-0")
	assert.ErrorIs(t, err, common.ErrSubmission)
	assert.Empty(t, fp.submitted)
}

func TestClient_TransportFailureIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := newClient(t, srv)
	srv.Close()

	_, _, err := c.Login(context.Background(), "alice", "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAuth)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, u := range []string{"", "portal.example", "://bad"} {
		_, err := NewClient(u, "/login", "/entry", time.Second, logging.Discard())
		assert.Error(t, err, u)
	}
}

func TestNewClient_JoinsPaths(t *testing.T) {
	c, err := NewClient("https://portal.example/app/", "/login.php", "entry.php", time.Second, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example/app/login.php", c.loginURL)
	assert.Equal(t, "https://portal.example/app/entry.php", c.submitURL)
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage(strings.NewReader(`
<form>
  <INPUT NAME="csrf" VALUE="abc">
  <input name="csrf" value="second">
  <input value="nameless">
  <input name="empty">
  <input name="form_data[tn][value]" value="&lt;42&gt;" />
</form>`))
	require.NoError(t, err)

	v, ok := page.Field("csrf")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	v, ok = page.Field("empty")
	assert.True(t, ok)
	assert.Empty(t, v)

	_, ok = page.Field("missing")
	assert.False(t, ok)

	pid, err := page.ParticipantID()
	require.NoError(t, err)
	assert.Equal(t, "<42>", pid)
}

func TestPage_MissingFields(t *testing.T) {
	page, err := ParsePage(strings.NewReader(`<html><body>Login fehlgeschlagen</body></html>`))
	require.NoError(t, err)

	_, err = page.CSRFToken()
	assert.ErrorIs(t, err, ErrFieldMissing)
	assert.ErrorIs(t, err, common.ErrAuth)

	_, err = page.ParticipantID()
	assert.ErrorIs(t, err, ErrFieldMissing)
}

func TestFormatKilometers(t *testing.T) {
	tests := map[float64]string{
		8:      "8",
		12.5:   "12.5",
		0.25:   "0.25",
		1000:   "1000",
		3.1e-2: "0.031",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatKilometers(in))
	}
}

func TestStatusError(t *testing.T) {
	login := &StatusError{Op: opLogin, StatusCode: http.StatusForbidden}
	assert.ErrorIs(t, login, common.ErrAuth)
	assert.Contains(t, login.Error(), "403")

	submit := &StatusError{Op: opSubmit, StatusCode: http.StatusInternalServerError}
	assert.ErrorIs(t, submit, common.ErrSubmission)
}
