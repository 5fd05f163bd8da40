package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/shadowline/shadowline-core/internal/knx"
)

// Registry routes inbound telegrams to device sensor handlers by group
// address.
//
// It is an explicit object constructed once at startup and passed to
// whatever needs to dispatch telegrams; there is no process-wide
// singleton. Bindings are established before dispatching begins.
//
// Concurrency: handlers for one device never run concurrently with each
// other (per-device mutex); handlers for distinct devices may, since
// devices share no state.
type Registry struct {
	log Logger

	mu       sync.RWMutex
	entries  map[string]*entry    // device name → entry
	bindings map[uint16][]binding // GA wire value → sensor bindings
}

// Logger is the minimal logging interface the registry needs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type entry struct {
	name string
	dev  Device

	// handlerMu serialises all sensor dispatches for this device.
	handlerMu sync.Mutex
}

type binding struct {
	entry *entry
	role  string
}

// NewRegistry creates an empty registry.
func NewRegistry(log Logger) *Registry {
	return &Registry{
		log:      log,
		entries:  make(map[string]*entry),
		bindings: make(map[uint16][]binding),
	}
}

// Register adds a device and binds its sensor roles to group addresses.
//
// Registering the same device name twice is an error; one group address
// may feed any number of devices.
func (r *Registry) Register(name string, dev Device, sensors map[string]knx.GroupAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDevice, name)
	}

	e := &entry{name: name, dev: dev}
	r.entries[name] = e

	for role, ga := range sensors {
		key := ga.ToUint16()
		r.bindings[key] = append(r.bindings[key], binding{entry: e, role: role})
	}

	return nil
}

// Dispatch routes one inbound telegram to every bound sensor handler.
//
// A handler error or panic is logged and isolated: it never prevents
// other devices from seeing the telegram, and never reaches the bus
// receive loop.
func (r *Registry) Dispatch(ctx context.Context, tg knx.Telegram) {
	r.mu.RLock()
	bound := r.bindings[tg.Destination.ToUint16()]
	r.mu.RUnlock()

	for _, b := range bound {
		r.invoke(ctx, b, tg)
	}
}

func (r *Registry) invoke(ctx context.Context, b binding, tg knx.Telegram) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("sensor handler panic",
				"device", b.entry.name,
				"role", b.role,
				"panic", fmt.Sprint(rec),
			)
		}
	}()

	b.entry.handlerMu.Lock()
	defer b.entry.handlerMu.Unlock()

	if err := b.entry.dev.HandleSensor(ctx, b.role, tg); err != nil {
		r.log.Warn("sensor handler failed",
			"device", b.entry.name,
			"role", b.role,
			"ga", tg.Destination.String(),
			"error", err,
		)
	}
}

// Devices returns the registered devices keyed by name.
func (r *Registry) Devices() map[string]Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Device, len(r.entries))
	for name, e := range r.entries {
		out[name] = e.dev
	}
	return out
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
