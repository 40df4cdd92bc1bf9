package ids

import "context"

type contextKey struct{ name string }

var pluginIDKey = &contextKey{name: "plugin_id"}

// WithPluginID attaches the calling plugin's identity to ctx. The isolation
// backend sets this before invoking a guest function so host functions can
// attribute the access.Request they build to the correct caller.
func WithPluginID(ctx context.Context, id PluginID) context.Context {
	return context.WithValue(ctx, pluginIDKey, id)
}

// PluginIDFromContext retrieves the plugin id WithPluginID attached, if any.
func PluginIDFromContext(ctx context.Context) (PluginID, bool) {
	id, ok := ctx.Value(pluginIDKey).(PluginID)
	return id, ok
}
