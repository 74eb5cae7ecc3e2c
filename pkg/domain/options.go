package domain

import (
	"net/http"
	"strings"
	"time"
)

// Options are the session runtime options applied when a session starts.
// Field tags match the option names accepted by Manager.SetOptions.
type Options struct {
	Name           string `mapstructure:"name" yaml:"name" json:"name"`
	UseOnlyCookies bool   `mapstructure:"use_only_cookies" yaml:"use_only_cookies" json:"use_only_cookies"`
	UseStrictMode  bool   `mapstructure:"use_strict_mode" yaml:"use_strict_mode" json:"use_strict_mode"`
	GCProbability  int    `mapstructure:"gc_probability" yaml:"gc_probability" json:"gc_probability"`
	GCDivisor      int    `mapstructure:"gc_divisor" yaml:"gc_divisor" json:"gc_divisor"`
	// GCMaxLifetime is in seconds.
	GCMaxLifetime int `mapstructure:"gc_maxlifetime" yaml:"gc_maxlifetime" json:"gc_maxlifetime"`
}

// DefaultOptions returns the options a freshly initialized Manager starts with.
func DefaultOptions() Options {
	return Options{
		Name:           DefaultPrefix,
		UseOnlyCookies: true,
		UseStrictMode:  true,
		GCProbability:  1,
		GCDivisor:      100,
		GCMaxLifetime:  1440,
	}
}

// MaxLifetime returns GCMaxLifetime as a duration.
func (o Options) MaxLifetime() time.Duration {
	return time.Duration(o.GCMaxLifetime) * time.Second
}

// CookieParams are the attributes of the session ID cookie.
type CookieParams struct {
	// Lifetime is the cookie max age in seconds; 0 means a browser-session cookie.
	Lifetime int    `mapstructure:"lifetime" yaml:"lifetime" json:"lifetime"`
	Path     string `mapstructure:"path" yaml:"path" json:"path"`
	Domain   string `mapstructure:"domain" yaml:"domain" json:"domain"`
	Secure   bool   `mapstructure:"secure" yaml:"secure" json:"secure"`
	HTTPOnly bool   `mapstructure:"httponly" yaml:"httponly" json:"httponly"`
	SameSite string `mapstructure:"samesite" yaml:"samesite" json:"samesite"`
}

// DefaultCookieParams returns the cookie parameters a freshly initialized Manager starts with.
func DefaultCookieParams() CookieParams {
	return CookieParams{
		Path:     "/",
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Strict",
	}
}

// SameSiteMode converts the textual policy to net/http's enum.
func (c CookieParams) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
