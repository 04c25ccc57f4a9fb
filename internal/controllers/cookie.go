package controllers

import (
	"net/http"
	"time"
)

const (
	CookieHandoff = "crisis_handoff"
)

// CookieConfig describes the handoff cookie set by the landing page.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool // HTTPS only in production
}

func (c CookieConfig) name() string {
	if c.Name == "" {
		return CookieHandoff
	}
	return c.Name
}

// setCookie sets the handoff cookie
func setCookie(w http.ResponseWriter, cfg CookieConfig, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.name(),
		Value:    value,
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
