package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/ports"
	"github.com/google/uuid"
)

const maxIDLength = 128

// Host is the per-request session runtime.
// It reads the session ID from the request, keeps the decoded values in memory
// and delivers the ID cookie on the response.
type Host struct {
	w http.ResponseWriter
	r *http.Request

	driver   ports.StorageDriver
	cookie   domain.CookieParams
	opts     domain.Options
	savePath string

	active bool
	id     string
	values map[string]any

	sample func() float64
	newID  func() string
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.Host = (*Host)(nil)

// HostOption configures a Host.
type HostOption func(*Host)

// WithSavePath sets the save path handed to StorageDriver.Open.
func WithSavePath(path string) HostOption {
	return func(h *Host) {
		h.savePath = path
	}
}

// WithSampler replaces the [0,1) random source used by the GC sampler.
func WithSampler(sample func() float64) HostOption {
	return func(h *Host) {
		h.sample = sample
	}
}

// WithIDGenerator replaces the session ID generator.
func WithIDGenerator(gen func() string) HostOption {
	return func(h *Host) {
		h.newID = gen
	}
}

// WithLogger configures a logger for the Host.
func WithLogger(logger *slog.Logger) HostOption {
	return func(h *Host) {
		h.logger = logger
	}
}

// NewHost creates a Host bound to one request/response pair.
func NewHost(w http.ResponseWriter, r *http.Request, opts ...HostOption) *Host {
	h := &Host{
		w:      w,
		r:      r,
		cookie: domain.DefaultCookieParams(),
		opts:   domain.DefaultOptions(),
		sample: rand.Float64,
		newID:  NewID,
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewID returns a random session ID: a UUID without dashes.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidID reports whether id may be used as a session ID.
func ValidID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == ',':
		default:
			return false
		}
	}
	return true
}

func (h *Host) Active() bool { return h.active }

func (h *Host) SetDriver(driver ports.StorageDriver) { h.driver = driver }

func (h *Host) SetCookieParams(params domain.CookieParams) { h.cookie = params }

// Start opens the session: resolves the ID, loads the payload, samples GC and sends the cookie.
func (h *Host) Start(ctx context.Context, opts domain.Options) error {
	if h.active {
		return nil
	}
	if h.driver == nil {
		return domain.ErrNoDriver
	}
	h.opts = opts

	id, fromCookie := h.requestID()
	if err := h.driver.Open(ctx, h.savePath, opts.Name); err != nil {
		return fmt.Errorf("failed to open session storage: %w", err)
	}

	var data []byte
	if id != "" {
		var err error
		if data, err = h.driver.Read(ctx, id); err != nil {
			_ = h.driver.Close(ctx)
			return fmt.Errorf("failed to read session: %w", err)
		}
		if opts.UseStrictMode && len(data) == 0 {
			h.logger.Debug("Rejecting uninitialized session ID", "name", opts.Name)
			id, fromCookie = "", false
		}
	}
	if id == "" {
		id = h.newID()
	}

	values := make(map[string]any)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			_ = h.driver.Close(ctx)
			return fmt.Errorf("failed to decode session payload: %w", err)
		}
	}

	h.id = id
	h.values = values
	h.active = true

	h.collect(ctx)

	if !fromCookie || h.cookie.Lifetime > 0 {
		h.sendCookie(id, h.cookie.Lifetime)
	}
	return nil
}

// requestID extracts a well-formed session ID and whether it came from the cookie.
func (h *Host) requestID() (string, bool) {
	if c, err := h.r.Cookie(h.opts.Name); err == nil && ValidID(c.Value) {
		return c.Value, true
	}
	if !h.opts.UseOnlyCookies {
		if id := h.r.URL.Query().Get(h.opts.Name); ValidID(id) {
			return id, false
		}
	}
	return "", false
}

func (h *Host) collect(ctx context.Context) {
	p, d := h.opts.GCProbability, h.opts.GCDivisor
	if p <= 0 || d <= 0 || h.sample()*float64(d) >= float64(p) {
		return
	}
	n, err := h.driver.GC(ctx, h.opts.MaxLifetime())
	if err != nil {
		h.logger.Warn("Session garbage collection failed", "error", err)
		return
	}
	h.logger.Debug("Session garbage collection", "deleted", n)
}

// sendCookie writes the ID cookie. maxAge < 0 expires it.
func (h *Host) sendCookie(value string, maxAge int) {
	c := &http.Cookie{
		Name:     h.opts.Name,
		Value:    value,
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		Secure:   h.cookie.Secure,
		HttpOnly: h.cookie.HTTPOnly,
		SameSite: h.cookie.SameSiteMode(),
		MaxAge:   maxAge,
	}
	if maxAge > 0 {
		c.Expires = h.now().Add(time.Duration(maxAge) * time.Second)
	}
	http.SetCookie(h.w, c)
}

// WriteClose encodes the values, writes them and closes the storage. No-op when inactive.
func (h *Host) WriteClose(ctx context.Context) error {
	if !h.active {
		return nil
	}
	h.active = false

	var writeErr error
	if data, err := json.Marshal(h.values); err != nil {
		writeErr = fmt.Errorf("failed to encode session payload: %w", err)
	} else if err := h.driver.Write(ctx, h.id, data); err != nil {
		writeErr = fmt.Errorf("failed to write session: %w", err)
	}
	return errors.Join(writeErr, h.driver.Close(ctx))
}

func (h *Host) Unset() { clear(h.values) }

// Destroy removes the session record and expires the cookie.
// It works on a session that was already written and closed.
func (h *Host) Destroy(ctx context.Context) error {
	if h.id == "" {
		return nil
	}
	if h.driver == nil {
		return domain.ErrNoDriver
	}
	if err := h.driver.Destroy(ctx, h.id); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	h.sendCookie("", -1)
	h.id = ""
	h.values = nil
	h.active = false
	return nil
}

// Values returns the live values of the open session; nil before Start.
func (h *Host) Values() map[string]any { return h.values }

func (h *Host) ID() string { return h.id }

func (h *Host) Name() string { return h.opts.Name }

// RegenerateID issues a new ID for the open session and re-sends the cookie.
func (h *Host) RegenerateID(ctx context.Context, deleteOld bool) error {
	if !h.active {
		return domain.ErrInactive
	}
	old := h.id
	h.id = h.newID()
	if deleteOld {
		if err := h.driver.Destroy(ctx, old); err != nil {
			return fmt.Errorf("failed to destroy previous session: %w", err)
		}
	}
	h.sendCookie(h.id, h.cookie.Lifetime)
	return nil
}
