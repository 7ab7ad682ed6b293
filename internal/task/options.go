package task

import "time"

// Options — политика выполнения задачи.
type Options struct {
	// CoalesceWindow — длительность окна коалесцирования.
	// 0 отключает коалесцирование.
	CoalesceWindow time.Duration

	// Serialize запрещает параллельные выполнения: пересекающиеся
	// вызовы встают в очередь (не больше одного следующего запуска).
	Serialize bool
}

// Option изменяет Options.
type Option func(*Options)

// WithCoalesceWindow задаёт окно коалесцирования.
func WithCoalesceWindow(d time.Duration) Option {
	return func(o *Options) {
		o.CoalesceWindow = d
	}
}

// WithSerialize включает или выключает сериализацию.
func WithSerialize(serialize bool) Option {
	return func(o *Options) {
		o.Serialize = serialize
	}
}

// Apply применяет опции к копии base.
func (o Options) Apply(opts ...Option) Options {
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.CoalesceWindow < 0 {
		o.CoalesceWindow = 0
	}
	return o
}
