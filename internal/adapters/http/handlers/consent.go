package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/dice-roller/internal/adapters/http/dto"
	"github.com/jsamuelsen/dice-roller/internal/adapters/http/middleware"
	"github.com/jsamuelsen/dice-roller/internal/domain"
	"github.com/jsamuelsen/dice-roller/internal/platform/config"
)

const secondsPerDay = 24 * 60 * 60

// ConsentHandler reads and stores the analytics consent cookie.
type ConsentHandler struct {
	cookieName string
	maxAge     int
	secure     bool
}

// NewConsentHandler creates a consent handler.
func NewConsentHandler(cfg config.ConsentConfig) *ConsentHandler {
	name := cfg.CookieName
	if name == "" {
		name = domain.ConsentKey
	}

	return &ConsentHandler{
		cookieName: name,
		maxAge:     cfg.MaxAgeDays * secondsPerDay,
		secure:     cfg.Secure,
	}
}

// CookieName is the cookie the Consent middleware must read.
func (h *ConsentHandler) CookieName() string { return h.cookieName }

// Get handles GET /api/v1/consent.
func (h *ConsentHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewConsentResponse(middleware.GetConsent(c)))
}

// Put handles PUT /api/v1/consent.
func (h *ConsentHandler) Put(c *gin.Context) {
	var req dto.ConsentRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	decision := h.store(c, req.Decision)
	c.JSON(http.StatusOK, dto.NewConsentResponse(decision))
}

// store writes the cookie. raw must already be validated.
func (h *ConsentHandler) store(c *gin.Context, raw string) domain.ConsentDecision {
	decision := domain.ParseConsent(raw)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, string(decision), h.maxAge, "/", "", h.secure, true)
	c.Set(middleware.ContextKeyConsent, decision)

	return decision
}

// RegisterConsentRoutes registers consent routes on the given router group.
func (h *ConsentHandler) RegisterConsentRoutes(rg *gin.RouterGroup) {
	rg.GET("/consent", h.Get)
	rg.PUT("/consent", h.Put)
}
