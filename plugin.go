package exercise

import (
	"context"
	"fmt"
)

// Plugin extends a runtime. Plugins hold a reference to the runtime they are
// registered with but never own it.
type Plugin interface {
	// Init is called once, either from Initialize or, when the runtime is
	// already initialized, from RegisterPlugin.
	Init(rt *Runtime) error
}

// PluginDestroyer is implemented by plugins that release resources when
// they are unregistered or the runtime is destroyed.
type PluginDestroyer interface {
	Destroy() error
}

// PluginFunc adapts a function to Plugin.
type PluginFunc func(rt *Runtime) error

// Init implements Plugin.
func (f PluginFunc) Init(rt *Runtime) error { return f(rt) }

type pluginEntry struct {
	name        string
	plugin      Plugin
	attempted   bool
	initialized bool
}

// RegisterPlugin adds a plugin under name. If the runtime has already been
// initialized the plugin is initialized immediately, otherwise Initialize
// does it. A failing Init is reported as a plugin error event; the plugin
// stays registered.
func (r *Runtime) RegisterPlugin(name string, plugin Plugin) error {
	if name == "" {
		return ErrPluginNameEmpty
	}
	if plugin == nil {
		return ErrPluginNil
	}

	r.mu.Lock()
	phase := r.state.phase
	if phase == PhaseDestroyed {
		r.mu.Unlock()
		return ErrRuntimeDestroyed
	}
	if r.pluginLocked(name) != nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPluginAlreadyRegistered, name)
	}
	entry := &pluginEntry{name: name, plugin: plugin}
	r.plugins = append(r.plugins, entry)
	r.mu.Unlock()

	r.logger.Debug("Registered plugin", "plugin", name)

	ctx := context.Background()
	initialized := false
	if phase >= PhaseReady {
		initialized = r.initPlugin(ctx, entry)
	}
	r.dispatch(ctx, []Event{NewEvent(EventPluginRegistered, PluginPayload{Name: name, Initialized: initialized})})
	return nil
}

// UnregisterPlugin removes the named plugin, calling Destroy when the plugin
// implements PluginDestroyer. It reports whether a plugin was removed.
func (r *Runtime) UnregisterPlugin(name string) bool {
	r.mu.Lock()
	var entry *pluginEntry
	for i, e := range r.plugins {
		if e.name == name {
			entry = e
			r.plugins = append(r.plugins[:i:i], r.plugins[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	if entry == nil {
		return false
	}

	ctx := context.Background()
	r.destroyPlugin(ctx, entry)
	r.dispatch(ctx, []Event{NewEvent(EventPluginUnregistered, PluginPayload{Name: name})})
	return true
}

// Plugin returns the named plugin, or false when none is registered.
func (r *Runtime) Plugin(name string) (Plugin, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.pluginLocked(name); e != nil {
		return e.plugin, true
	}
	return nil, false
}

// Plugins lists registered plugin names in registration order.
func (r *Runtime) Plugins() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.plugins))
	for _, e := range r.plugins {
		names = append(names, e.name)
	}
	return names
}

func (r *Runtime) pluginLocked(name string) *pluginEntry {
	for _, e := range r.plugins {
		if e.name == name {
			return e
		}
	}
	return nil
}

// initPendingPlugins initializes, in registration order, every plugin that
// has not been attempted yet. Plugins registered by another plugin's Init
// are picked up in the same pass.
func (r *Runtime) initPendingPlugins(ctx context.Context) {
	for {
		r.mu.Lock()
		var next *pluginEntry
		for _, e := range r.plugins {
			if !e.attempted {
				next = e
				break
			}
		}
		r.mu.Unlock()
		if next == nil {
			return
		}
		r.initPlugin(ctx, next)
	}
}

func (r *Runtime) initPlugin(ctx context.Context, entry *pluginEntry) bool {
	r.mu.Lock()
	if entry.attempted {
		ok := entry.initialized
		r.mu.Unlock()
		return ok
	}
	entry.attempted = true
	r.mu.Unlock()

	r.logger.Debug("Initializing plugin", "plugin", entry.name)
	if err := r.safePluginCall(func() error { return entry.plugin.Init(r) }); err != nil {
		r.handleError(ctx, ErrorKindPlugin, "plugin:"+entry.name, err)
		return false
	}

	r.mu.Lock()
	entry.initialized = true
	r.mu.Unlock()
	return true
}

func (r *Runtime) destroyPlugin(ctx context.Context, entry *pluginEntry) {
	d, ok := entry.plugin.(PluginDestroyer)
	if !ok {
		r.logger.Debug("Plugin does not implement PluginDestroyer, skipping", "plugin", entry.name)
		return
	}
	if err := r.safePluginCall(d.Destroy); err != nil {
		r.handleError(ctx, ErrorKindPlugin, "plugin:"+entry.name, err)
	}
}

func (r *Runtime) safePluginCall(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoveredError(rec)
		}
	}()
	return fn()
}
