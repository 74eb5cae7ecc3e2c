package session_test

import (
	"context"
	"encoding/json"

	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/ports"
)

// fakeHost records the calls a Manager makes against its runtime.
type fakeHost struct {
	active  bool
	driver  ports.StorageDriver
	cookies domain.CookieParams
	options domain.Options
	values  map[string]any
	id      string

	starts, writes, unsets, destroys, regenerations int
	setDrivers                                      int

	startErr, writeErr, destroyErr error
}

func (h *fakeHost) Active() bool { return h.active }

func (h *fakeHost) SetDriver(d ports.StorageDriver) {
	h.setDrivers++
	h.driver = d
}

func (h *fakeHost) SetCookieParams(p domain.CookieParams) { h.cookies = p }

func (h *fakeHost) Start(ctx context.Context, opts domain.Options) error {
	h.starts++
	if h.startErr != nil {
		return h.startErr
	}
	h.options = opts
	h.active = true
	if h.id == "" {
		h.id = "sid1"
	}
	h.values = map[string]any{}
	data, err := h.driver.Read(ctx, h.id)
	if err != nil {
		return err
	}
	if len(data) > 0 {
		return json.Unmarshal(data, &h.values)
	}
	return nil
}

func (h *fakeHost) WriteClose(ctx context.Context) error {
	h.writes++
	if h.writeErr != nil {
		return h.writeErr
	}
	if !h.active {
		return nil
	}
	data, err := json.Marshal(h.values)
	if err != nil {
		return err
	}
	h.active = false
	return h.driver.Write(ctx, h.id, data)
}

func (h *fakeHost) Unset() {
	h.unsets++
	clear(h.values)
}

func (h *fakeHost) Destroy(ctx context.Context) error {
	h.destroys++
	if h.destroyErr != nil {
		return h.destroyErr
	}
	h.active = false
	return h.driver.Destroy(ctx, h.id)
}

func (h *fakeHost) Values() map[string]any { return h.values }

func (h *fakeHost) ID() string { return h.id }

func (h *fakeHost) Name() string { return h.options.Name }

func (h *fakeHost) RegenerateID(ctx context.Context, deleteOld bool) error {
	h.regenerations++
	if deleteOld {
		if err := h.driver.Destroy(ctx, h.id); err != nil {
			return err
		}
	}
	h.id = h.id + "x"
	return nil
}
