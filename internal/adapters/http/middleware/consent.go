package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/dice-roller/internal/domain"
)

// ContextKeyConsent is the gin context key for the visitor's consent decision.
const ContextKeyConsent = "consent"

// Consent reads the consent cookie once per request. Missing or unknown
// values resolve to domain.ConsentUnset.
func Consent(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Cookie(cookieName)
		c.Set(ContextKeyConsent, domain.ParseConsent(raw))

		c.Next()
	}
}

// GetConsent returns the decision stored by Consent, or unset.
func GetConsent(c *gin.Context) domain.ConsentDecision {
	if v, ok := c.Get(ContextKeyConsent); ok {
		if d, ok := v.(domain.ConsentDecision); ok {
			return d
		}
	}

	return domain.ConsentUnset
}
