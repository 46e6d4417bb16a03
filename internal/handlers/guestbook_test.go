package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/guestbook/internal/auth"
	"github.com/charlesng35/guestbook/internal/cache"
	"github.com/charlesng35/guestbook/internal/csrf"
	"github.com/charlesng35/guestbook/internal/database/testutil"
	"github.com/charlesng35/guestbook/internal/guestbook"
	"github.com/charlesng35/guestbook/internal/middleware"
	"github.com/charlesng35/guestbook/internal/services"
	"github.com/charlesng35/guestbook/pkg/response"
	"github.com/charlesng35/guestbook/web"
)

var tokenField = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

type pageClient struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func newPageRouter(t *testing.T, dispatcher Dispatcher) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signer, err := auth.NewSessionSigner(auth.SignerConfig{Secret: "handler-secret", TTL: time.Hour})
	require.NoError(t, err)

	handler, err := NewGuestbookHandler(dispatcher)
	require.NoError(t, err)

	tmpl, err := web.Templates()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.Session(signer, ""))
	r.GET("/", handler.Page)
	r.POST("/", handler.Page)
	return r
}

func newPageClient(t *testing.T) *pageClient {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	entries, err := services.NewEntryService(db)
	require.NoError(t, err)
	guard, err := csrf.NewGuard(cache.NewMemoryStore())
	require.NoError(t, err)
	dispatcher, err := guestbook.NewDispatcher(entries, guard)
	require.NoError(t, err)

	return &pageClient{t: t, router: newPageRouter(t, dispatcher)}
}

func (p *pageClient) do(req *http.Request) *httptest.ResponseRecorder {
	p.t.Helper()
	if p.cookie != nil {
		req.AddCookie(p.cookie)
	}
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.DefaultSessionCookie {
			p.cookie = cookie
		}
	}
	return w
}

func (p *pageClient) get(target string) *httptest.ResponseRecorder {
	return p.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (p *pageClient) post(form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return p.do(req)
}

func (p *pageClient) token() string {
	p.t.Helper()
	w := p.get("/")
	require.Equal(p.t, http.StatusOK, w.Code)
	match := tokenField.FindStringSubmatch(w.Body.String())
	require.Len(p.t, match, 2)
	return match[1]
}

func TestGuestbookPageRendersEmptyList(t *testing.T) {
	client := newPageClient(t)

	w := client.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	require.Contains(t, w.Body.String(), "No messages yet.")
	require.Contains(t, w.Body.String(), `name="action" value="create"`)
	require.NotNil(t, client.cookie)
}

func TestGuestbookPageCreateEscapesAndRedirects(t *testing.T) {
	client := newPageClient(t)

	w := client.post(url.Values{
		"action":       {"create"},
		"csrf_token":   {client.token()},
		"guest_name":   {`<script>alert("x")</script>`},
		"message_text": {"line one\nline <b>two</b>"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	page := client.get("/").Body.String()
	require.NotContains(t, page, "<script>alert")
	require.Contains(t, page, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;")
	require.Contains(t, page, "line one<br>line &lt;b&gt;two&lt;/b&gt;")
	require.Contains(t, page, `class="edit-link"`)
}

func TestGuestbookPageRejectsForgedPost(t *testing.T) {
	client := newPageClient(t)
	client.token()

	w := client.post(url.Values{
		"action":       {"create"},
		"csrf_token":   {"forged"},
		"guest_name":   {"Mallory"},
		"message_text": {"spam"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Invalid CSRF token.")
	require.Contains(t, w.Body.String(), `value="Mallory"`)
	require.Contains(t, w.Body.String(), "No messages yet.")
}

func TestGuestbookPageTokenIsBoundToSession(t *testing.T) {
	alice := newPageClient(t)
	token := alice.token()

	// a second visitor on the same server gets a different session and token
	bob := &pageClient{t: t, router: alice.router}
	w := bob.post(url.Values{
		"action":       {"create"},
		"csrf_token":   {token},
		"guest_name":   {"Bob"},
		"message_text": {"hi"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Invalid CSRF token.")
}

func TestGuestbookPageEditAndDeleteLinks(t *testing.T) {
	client := newPageClient(t)

	w := client.post(url.Values{
		"action":       {"create"},
		"csrf_token":   {client.token()},
		"guest_name":   {"Ada"},
		"message_text": {"Hi"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)

	page := client.get("/").Body.String()
	edit := regexp.MustCompile(`href="/\?edit=(\d+)"`).FindStringSubmatch(page)
	require.Len(t, edit, 2)

	form := client.get("/?edit=" + edit[1]).Body.String()
	require.Contains(t, form, "Edit Message")
	require.Contains(t, form, `name="entry_id" value="`+edit[1]+`"`)
	require.Contains(t, form, "Cancel Edit")

	del := regexp.MustCompile(`href="(/\?delete=\d+&amp;token=[^"]+)"`).FindStringSubmatch(client.get("/").Body.String())
	require.Len(t, del, 2)
	w = client.get(strings.ReplaceAll(del[1], "&amp;", "&"))
	require.Equal(t, http.StatusSeeOther, w.Code)

	require.Contains(t, client.get("/").Body.String(), "No messages yet.")
}

func TestGuestbookPageMalformedForm(t *testing.T) {
	client := newPageClient(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("guest_name=%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := client.do(req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGuestbookPageOversizedForm(t *testing.T) {
	client := newPageClient(t)

	body := "action=create&message_text=" + strings.Repeat("a", maxFormBytes)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := client.do(req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")
}

type faultyDispatcher struct{}

func (faultyDispatcher) Dispatch(context.Context, guestbook.Request) (*guestbook.Result, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestGuestbookPageStorageFault(t *testing.T) {
	router := newPageRouter(t, faultyDispatcher{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Equal(t, "STORAGE_UNAVAILABLE", payload.Error.Code)
	require.NotContains(t, w.Body.String(), "connection refused")
}

func TestNewGuestbookHandlerRequiresDispatcher(t *testing.T) {
	_, err := NewGuestbookHandler(nil)
	require.Error(t, err)
}
