package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/bookreview-service/internal/core/domain"
	logicv1 "github.com/duynhne/bookreview-service/internal/logic/v1"
	"github.com/duynhne/bookreview-service/middleware"
)

// Handler groups HTTP handlers for the book review API v1.
// Dependencies are injected via the constructor, no global state.
type Handler struct {
	accounts *logicv1.AccountService
	auth     *logicv1.AuthService
	catalog  *logicv1.CatalogService
	reviews  *logicv1.ReviewService
	relay    *logicv1.Relay

	cookieName string
	sessionTTL time.Duration
}

// Options carries the session cookie settings.
type Options struct {
	CookieName string
	SessionTTL time.Duration
}

// NewHandler creates a new Handler.
func NewHandler(
	accounts *logicv1.AccountService,
	auth *logicv1.AuthService,
	catalog *logicv1.CatalogService,
	reviews *logicv1.ReviewService,
	relay *logicv1.Relay,
	opts Options,
) *Handler {
	if opts.CookieName == "" {
		opts.CookieName = "session_id"
	}
	return &Handler{
		accounts:   accounts,
		auth:       auth,
		catalog:    catalog,
		reviews:    reviews,
		relay:      relay,
		cookieName: opts.CookieName,
		sessionTTL: opts.SessionTTL,
	}
}

// RegisterRoutes registers every API v1 route on r.
//
// Root routes use the weak (session-trust) policy for review mutations; the
// /customer/auth namespace additionally re-verifies the access token.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	rg := r.Group("", h.LoadSession())

	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)

	rg.GET("/", h.ListBooks)
	rg.GET("/isbn/:isbn", h.GetBook)
	rg.GET("/author/:author", h.BooksByAuthor)
	rg.GET("/title/:title", h.BooksByTitle)
	rg.GET("/review/:isbn", h.GetReviews)

	rg.PUT("/auth/review/:isbn", h.PutReview)
	rg.DELETE("/auth/review/:isbn", h.DeleteReview)

	h.registerRelayRoutes(rg)

	customer := rg.Group("/customer")
	customer.POST("/login", h.Login)

	protected := customer.Group("/auth", h.RequireToken())
	protected.GET("/me", h.GetMe)
	protected.PUT("/review/:isbn", h.PutReview)
	protected.DELETE("/review/:isbn", h.DeleteReview)
}

// startSpan opens the web-layer span of a handler.
func startSpan(c *gin.Context, name string) (context.Context, trace.Span) {
	return middleware.StartSpan(c.Request.Context(), name, trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
}

// Register handles POST /register.
func (h *Handler) Register(c *gin.Context) {
	ctx, span := startSpan(c, "http.register")
	defer span.End()

	logger := pkgzerolog.FromContext(ctx)

	var req domain.RegisterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			logger.Warn().Err(err).Msg("Invalid request body")
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
			return
		}
	}

	acc, err := h.accounts.Register(ctx, req)
	if err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Str("username", req.Username).Msg("Registration failed")

		switch {
		case errors.Is(err, logicv1.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		case errors.Is(err, logicv1.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"message": "Username already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	logger.Info().Str("username", acc.Username).Msg("Registration successful")
	c.JSON(http.StatusCreated, domain.RegisterResponse{
		Message:  "User successfully registered",
		Username: acc.Username,
	})
}

// Login handles POST /login and POST /customer/login.
func (h *Handler) Login(c *gin.Context) {
	ctx, span := startSpan(c, "http.login")
	defer span.End()

	logger := pkgzerolog.FromContext(ctx)

	var req domain.LoginRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			logger.Warn().Err(err).Msg("Invalid request body")
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
			return
		}
	}

	sessionID := ""
	if sess := sessionFrom(c); sess != nil {
		sessionID = sess.ID
	}

	res, err := h.auth.Login(ctx, sessionID, req)
	if err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Str("username", req.Username).Msg("Login failed")

		switch {
		case errors.Is(err, logicv1.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		case errors.Is(err, logicv1.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid username or password"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	h.setSessionCookie(c, res.Session.ID)

	logger.Info().Str("username", res.Username).Msg("Login successful")
	c.JSON(http.StatusOK, domain.LoginResponse{
		Message:  "User successfully logged in",
		Token:    res.Token,
		Username: res.Username,
	})
}

// GetMe handles GET /customer/auth/me: the claims of the verified access token.
func (h *Handler) GetMe(c *gin.Context) {
	claims := claimsFrom(c)
	if claims == nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "User not authenticated"})
		return
	}

	body := gin.H{"username": claims.Username}
	if claims.IssuedAt != nil {
		body["issuedAt"] = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		body["expiresAt"] = claims.ExpiresAt.Time.UTC()
	}
	c.JSON(http.StatusOK, body)
}
