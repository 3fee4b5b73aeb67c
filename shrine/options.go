package shrine

import (
	"github.com/Zaphodious/oosikle-app/log"
)

const DefaultQueueCapacity = 64

type Options struct {
	Logger        *log.Logger
	QueueCapacity int
}

type Option func(*Options) error

func newDefaultOptions() *Options {
	return &Options{
		Logger:        log.Default(),
		QueueCapacity: DefaultQueueCapacity,
	}
}

// WithLogger sets the logger the worker reports failed work items to.
func WithLogger(logger *log.Logger) Option {
	return func(o *Options) error {
		if logger != nil {
			o.Logger = logger
		}
		return nil
	}
}

// WithQueueCapacity sets how many work items may wait in the queue before
// senders block. Zero makes every enqueue a rendezvous with the worker.
func WithQueueCapacity(capacity int) Option {
	return func(o *Options) error {
		if capacity < 0 {
			return ErrInvalidCapacity
		}
		o.QueueCapacity = capacity
		return nil
	}
}
