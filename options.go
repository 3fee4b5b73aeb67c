package oosikle

import "github.com/Zaphodious/oosikle-app/log"

type LibraryOptions struct {
	Logger *log.Logger
	// Label names the catalog shrine in logs and metrics.
	Label string
}

type LibraryOption func(*LibraryOptions) error

func newDefaultLibraryOptions() *LibraryOptions {
	return &LibraryOptions{
		Label: "catalog",
	}
}

// WithLogger overrides the logger built from the configuration.
func WithLogger(logger *log.Logger) LibraryOption {
	return func(opts *LibraryOptions) error {
		opts.Logger = logger
		return nil
	}
}

func WithLabel(label string) LibraryOption {
	return func(opts *LibraryOptions) error {
		if label != "" {
			opts.Label = label
		}
		return nil
	}
}
