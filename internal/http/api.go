package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"anon-bbs/internal/domain"
	"anon-bbs/internal/render"
	"anon-bbs/internal/repository"
	"anon-bbs/internal/service"
)

const (
	usernameCookie = "username"
	seedCookie     = "seed"

	requestedWithHeader = "X-Requested-With"
	requestedWithScript = "XMLHttpRequest"
)

// Config tunes the router.
type Config struct {
	// CanonicalPath is served in addition to "/" and "/bbs".
	CanonicalPath string
	CookieTTL     time.Duration
	Logger        *logrus.Logger
}

// Handler wires HTTP routes to the board service.
type Handler struct {
	board     service.BoardService
	renderer  *render.Renderer
	logger    *logrus.Logger
	viewPaths []string
	cookieTTL time.Duration
	now       func() time.Time
}

func NewHandler(board service.BoardService, renderer *render.Renderer, cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = 30 * 24 * time.Hour
	}

	paths := []string{"/", "/bbs"}
	if p := strings.TrimSpace(cfg.CanonicalPath); p != "" && p != "/" && p != "/bbs" {
		paths = append(paths, p)
	}

	return &Handler{
		board:     board,
		renderer:  renderer,
		logger:    cfg.Logger,
		viewPaths: paths,
		cookieTTL: cfg.CookieTTL,
		now:       time.Now,
	}
}

// RegisterRoutes installs the board on router. Script submissions are
// intercepted by middleware before routing, so they work on any path.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	// view paths match exactly, "/bbs/" is not the board
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	router.Use(requestLogger(h.logger), noStoreMiddleware(), h.submissionMiddleware())

	for _, p := range h.viewPaths {
		router.Any(p, h.showBoard)
	}
	router.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "404 Not Found")
	})
}

func noStoreMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// pages carry the saved seed
		c.Writer.Header().Set("Cache-Control", "no-store")
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}

func (h *Handler) submissionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isScriptSubmission(c.Request) {
			c.Next()
			return
		}
		h.submit(c)
		c.Abort()
	}
}

// isScriptSubmission reports a body-carrying method sent with X-Requested-With: XMLHttpRequest.
func isScriptSubmission(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get(requestedWithHeader)), requestedWithScript)
}

func (h *Handler) submit(c *gin.Context) {
	if err := h.board.Ready(); err != nil {
		h.configError(c, err)
		return
	}

	sub := h.decodeSubmission(c)

	ctx := c.Request.Context()
	identity, err := h.board.Submit(ctx, sub)
	if err != nil {
		if errors.Is(err, repository.ErrNotConfigured) {
			h.configError(c, err)
			return
		}
		h.logger.WithField("user_id", identity.UserID).Warnf("submit: %v", err)
	}

	h.setSessionCookies(c, sub.Username, sub.Seed, sub.RememberMe)

	board := h.board.Snapshot(ctx)
	c.JSON(http.StatusOK, render.NewFragment(board, sub.Username, sub.Seed))
}

// decodeSubmission keeps every well-typed field of the body. Only a body that
// is not JSON at all falls back to the empty submission.
func (h *Handler) decodeSubmission(c *gin.Context) domain.Submission {
	var sub domain.Submission
	err := c.ShouldBindJSON(&sub)
	if err == nil {
		return sub
	}
	h.logger.Debugf("decode submission: %v", err)

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return sub
	}
	return domain.Submission{}
}

func (h *Handler) showBoard(c *gin.Context) {
	if err := h.board.Ready(); err != nil {
		h.configError(c, err)
		return
	}

	savedUsername, _ := c.Cookie(usernameCookie)
	savedSeed, _ := c.Cookie(seedCookie)
	_, err := c.Request.Cookie(usernameCookie)
	remembered := err == nil

	board := h.board.Snapshot(c.Request.Context())

	var buf bytes.Buffer
	if err := h.renderer.Page(&buf, board, savedUsername, savedSeed, remembered); err != nil {
		h.logger.Errorf("render board: %v", err)
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// setSessionCookies refreshes both cookies; without remember-me they expire immediately.
func (h *Handler) setSessionCookies(c *gin.Context, username, seed string, remember bool) {
	expires := h.now().Add(-time.Hour)
	if remember {
		expires = h.now().Add(h.cookieTTL)
	}

	for _, kv := range [][2]string{{usernameCookie, username}, {seedCookie, seed}} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     kv[0],
			Value:    url.QueryEscape(kv[1]),
			Path:     "/",
			Expires:  expires,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func (h *Handler) configError(c *gin.Context, err error) {
	h.logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.String(http.StatusInternalServerError, err.Error())
}
