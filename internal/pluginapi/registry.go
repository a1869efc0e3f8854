package pluginapi

import (
	"context"
	"errors"

	"github.com/vk/buildshim/internal/buildgraph"
	"github.com/vk/buildshim/internal/ctxlog"
	"github.com/vk/buildshim/internal/semver"
)

// ErrNoAdapter is returned when the registry holds no models.
var ErrNoAdapter = errors.New("no plugin object model registered")

// Registry holds the known object models, oldest release first.
type Registry struct {
	models []*Model
}

// NewRegistry creates a registry from models given in release order.
func NewRegistry(models ...*Model) *Registry {
	r := &Registry{}
	for _, m := range models {
		r.Register(m)
	}
	return r
}

// Default returns a registry with every built-in model.
func Default() *Registry {
	return NewRegistry(Legacy(), V7(), V8())
}

// Register appends a model. Later registrations are treated as newer.
func (r *Registry) Register(m *Model) {
	r.models = append(r.models, m)
}

// Models returns the registered models in release order.
func (r *Registry) Models() []*Model {
	out := make([]*Model, len(r.models))
	copy(out, r.models)
	return out
}

// Select picks the model for ext. A parseable version matching a model's
// constraint decides; otherwise the model whose top-level settings are most
// present in ext wins, preferring the newest on ties.
func (r *Registry) Select(ctx context.Context, version string, ext *buildgraph.Extension) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	if len(r.models) == 0 {
		return nil, ErrNoAdapter
	}

	if version != "" {
		v, err := semver.ParseVersion(version)
		if err != nil {
			logger.Debug("Plugin version unparseable, falling back to duck typing.", "plugin_version", version, "error", err)
		} else {
			for _, m := range r.models {
				if semver.Satisfies(v, m.Constraint) {
					logger.Debug("Object model selected by version.", "model", m.Name, "plugin_version", v.String())
					return m, nil
				}
			}
			logger.Debug("No object model matches plugin version, falling back to duck typing.", "plugin_version", v.String())
		}
	}

	best := r.models[len(r.models)-1]
	bestScore := -1
	for i := len(r.models) - 1; i >= 0; i-- {
		m := r.models[i]
		score := 0
		if ext != nil && ext.Body != nil {
			for _, root := range m.roots() {
				if ext.Body.Has(root) {
					score++
				}
			}
		}
		if score > bestScore {
			best, bestScore = m, score
		}
	}
	logger.Debug("Object model selected by shape.", "model", best.Name, "score", bestScore)
	return best, nil
}
