// Package params applies an immutable, flat configuration mapping onto a
// learner's hyperparameters before any training happens.
package params

import (
	"sort"
	"strings"

	"github.com/YuminosukeSato/skbatch/core/model"
	"github.com/YuminosukeSato/skbatch/pkg/errors"
	"github.com/YuminosukeSato/skbatch/pkg/log"
)

// Configuration is a read-only snapshot of parameter name -> value.
type Configuration struct {
	values map[string]interface{}
}

// NewConfiguration copies values into a new Configuration.
// Later changes to values do not affect it.
func NewConfiguration(values map[string]interface{}) Configuration {
	c := Configuration{values: make(map[string]interface{}, len(values))}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Get returns the value stored under name.
func (c Configuration) Get(name string) (interface{}, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Keys returns the parameter names in sorted order.
func (c Configuration) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (c Configuration) Len() int {
	return len(c.values)
}

// Map returns a copy of the entries.
func (c Configuration) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Binder applies configurations to learners.
type Binder struct {
	mapper *Mapper
	logger log.Logger
}

// BindOption configures a Binder.
type BindOption func(*Binder)

// WithMapper overrides the learner's own parameter specs.
func WithMapper(m *Mapper) BindOption {
	return func(b *Binder) {
		b.mapper = m
	}
}

// WithLogger sets the binder's logger.
func WithLogger(logger log.Logger) BindOption {
	return func(b *Binder) {
		b.logger = logger
	}
}

// NewBinder returns a binder.
func NewBinder(opts ...BindOption) *Binder {
	b := &Binder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.GetLogger()
	}
	b.logger = b.logger.With(log.ComponentKey, "params")
	return b
}

// Configure applies every entry of cfg to learner. Names are resolved
// through the binder's mapper, or the learner's ParamSpecs when it
// publishes them; otherwise they are passed to SetParams unchanged.
//
// The canonical mapping reaches SetParams in a single call, so a learner
// that validates before committing keeps its previous parameters when any
// entry is rejected. Every failure is a ConfigurationError and is reported
// before the learner sees any batch. Applying the same cfg again yields the
// same parameters.
func (b *Binder) Configure(learner model.ParameterSetter, cfg Configuration) error {
	if learner == nil {
		return errors.NewConfigurationError("", "learner must not be nil", nil)
	}

	mapper := b.mapper
	if mapper == nil {
		if d, ok := learner.(Described); ok {
			mapper = NewMapper(d.ParamSpecs()...)
		}
	}

	values := cfg.Map()
	if mapper != nil {
		var err error
		if values, err = mapper.Canonicalize(values); err != nil {
			return err
		}
	}

	// 一括で渡す。学習器側で全キーを検証してから反映させる
	if err := learner.SetParams(values); err != nil {
		var cfgErr *errors.ConfigurationError
		if errors.As(err, &cfgErr) {
			return err
		}
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)
		var value interface{}
		if len(names) == 1 {
			value = values[names[0]]
		}
		return errors.NewConfigurationError(strings.Join(names, ","), err.Error(), value)
	}

	b.logger.Debug("Hyperparameters applied",
		log.OperationKey, log.OperationConfigure,
		log.HyperParamsKey, values,
	)
	return nil
}

// Configure applies cfg to learner with a default Binder.
func Configure(learner model.ParameterSetter, cfg Configuration, opts ...BindOption) error {
	return NewBinder(opts...).Configure(learner, cfg)
}
