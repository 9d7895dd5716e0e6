package http

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coursecraft/coursecraft-api/internal/domain"
	"github.com/coursecraft/coursecraft-api/internal/export"
	"github.com/coursecraft/coursecraft-api/internal/genai"
	"github.com/coursecraft/coursecraft-api/internal/mail"
	"github.com/coursecraft/coursecraft-api/internal/oauth"
	"github.com/coursecraft/coursecraft-api/internal/queue"
	"github.com/coursecraft/coursecraft-api/internal/security"
)

// UserStore is what the handlers need from persistence. *repo.Store satisfies
// it; tests plug in an in-memory implementation.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	FindUserByGoogleID(ctx context.Context, sub string) (*domain.User, error)
	FindUserByResetToken(ctx context.Context, hashed string, now time.Time) (*domain.User, error)
	FindUserByVerifyToken(ctx context.Context, hashed string, now time.Time) (*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) error
	ListUsers(ctx context.Context) ([]domain.User, error)
	Ping(ctx context.Context) error
}

type Handler struct {
	Store           UserStore
	Mailer          mail.Mailer
	Google          *oauth.GoogleOAuth
	Gen             genai.Generator
	Exporter        *export.Exporter
	Events          queue.Publisher
	Exchange        string
	JWTSecret       string
	TokenTTL        time.Duration
	CookieTTL       time.Duration
	RequireVerified bool
	FrontendURL     string
	GenTimeout      time.Duration
	Dev             bool

	startedAt time.Time
}

func NewHandler(store UserStore, mailer mail.Mailer, google *oauth.GoogleOAuth,
	gen genai.Generator, exporter *export.Exporter, events queue.Publisher,
	exchange, jwtSecret string, tokenDays, cookieDays int,
	requireVerified bool, frontendURL string, genTimeout time.Duration, dev bool) *Handler {
	return &Handler{
		Store:           store,
		Mailer:          mailer,
		Google:          google,
		Gen:             gen,
		Exporter:        exporter,
		Events:          events,
		Exchange:        exchange,
		JWTSecret:       jwtSecret,
		TokenTTL:        time.Duration(tokenDays) * 24 * time.Hour,
		CookieTTL:       time.Duration(cookieDays) * 24 * time.Hour,
		RequireVerified: requireVerified,
		FrontendURL:     frontendURL,
		GenTimeout:      genTimeout,
		Dev:             dev,
		startedAt:       time.Now(),
	}
}

var emailRe = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func fail(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"success": false, "error": msg})
}

func failFields(c *gin.Context, errs []fieldError) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": errs})
}

// sendTokenResponse issues the session token, mirrors it into an httpOnly
// cookie and returns it in the body.
func (h *Handler) sendTokenResponse(c *gin.Context, u *domain.User, code int) {
	tok, err := security.MakeAccess(h.JWTSecret, u.ID.Hex(), h.TokenTTL)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Could not issue token")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("token", tok, int(h.CookieTTL.Seconds()), "/", "", !h.Dev, true)
	c.JSON(code, gin.H{"success": true, "token": tok, "user": u})
}

func requestID(c *gin.Context) string {
	if v, ok := c.Get(ctxRequestID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
