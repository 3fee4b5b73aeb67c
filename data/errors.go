package data

import (
	"errors"
	"sync"
)

// Standard errors shared by the catalog stores and the virtual tree.
var (
	// Path resolution errors
	ErrInvalidPath = errors.New("oosikle: invalid path detected")
	ErrNotExist    = errors.New("oosikle: path does not exist")

	// Catalog errors
	ErrExist           = errors.New("oosikle: record already exists")
	ErrInvalidRecord   = errors.New("oosikle: invalid file record")
	ErrUnknownProtocol = errors.New("oosikle: unknown catalog address protocol")
	ErrMalformedAddr   = errors.New("oosikle: malformed catalog address")
)

// Errors collects failures from batch operations such as imports.
type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.errors)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
