package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/guestbook/internal/guestbook"
	"github.com/charlesng35/guestbook/internal/middleware"
	"github.com/charlesng35/guestbook/internal/models"
	apperrors "github.com/charlesng35/guestbook/pkg/errors"
	"github.com/charlesng35/guestbook/pkg/logger"
	"github.com/charlesng35/guestbook/pkg/response"
)

// PageTemplate is the name of the guestbook page template.
const PageTemplate = "guestbook.tmpl"

const maxFormBytes = 64 << 10

// Dispatcher runs one guestbook request.
type Dispatcher interface {
	Dispatch(ctx context.Context, req guestbook.Request) (*guestbook.Result, error)
}

// GuestbookHandler adapts HTTP requests to the guestbook dispatcher and renders the page.
type GuestbookHandler struct {
	dispatcher Dispatcher
}

// NewGuestbookHandler constructs the page handler.
func NewGuestbookHandler(dispatcher Dispatcher) (*GuestbookHandler, error) {
	if dispatcher == nil {
		return nil, errors.New("guestbook handler: dispatcher is required")
	}
	return &GuestbookHandler{dispatcher: dispatcher}, nil
}

// pageView is everything the page template reads. The template escapes each field.
type pageView struct {
	Action           string
	Errors           []string
	Form             guestbook.FormState
	Entries          []models.Entry
	Token            string
	MaxNameLength    int
	MaxMessageLength int
}

// Page serves GET and POST requests on the guestbook page.
func (h *GuestbookHandler) Page(c *gin.Context) {
	req := guestbook.Request{
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		SessionID: middleware.SessionID(c),
		Query:     c.Request.URL.Query(),
	}

	if c.Request.Method == http.MethodPost {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFormBytes)
		if err := c.Request.ParseForm(); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.Error(c, apperrors.ErrPayloadTooLarge)
				return
			}
			response.Error(c, apperrors.NewBadRequest("Malformed form submission"))
			return
		}
		req.Form = c.Request.PostForm
	}

	result, err := h.dispatcher.Dispatch(requestContext(c), req)
	if err != nil {
		logger.WithModule("guestbook").Error("render page",
			zap.String("method", req.Method),
			zap.Error(err),
		)
		_ = c.Error(err)
		response.Error(c, apperrors.ErrStorage.WithInternal(err))
		return
	}

	if result.Redirect() {
		c.Redirect(http.StatusSeeOther, result.RedirectTo)
		return
	}

	// the page embeds the session token
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, PageTemplate, pageView{
		Action:           req.Path,
		Errors:           result.Errors,
		Form:             result.Form,
		Entries:          result.Entries,
		Token:            result.Token,
		MaxNameLength:    guestbook.MaxNameLength,
		MaxMessageLength: guestbook.MaxMessageLength,
	})
}
