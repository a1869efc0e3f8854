// Package pluginapi knows the object models that successive versions of the
// platform plugin attach to a subproject, and binds an extension to the model
// matching the plugin in use.
//
// A Model maps each capability it exposes to an attribute path and value type
// inside the extension body. Models are kept in a Registry in release order.
// Selection prefers the declared plugin version; when that is missing or
// unparseable the registry falls back to duck typing on the extension's
// contents.
package pluginapi
