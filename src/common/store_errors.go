package common

import "fmt"

// StoreErrType classifies store lookup failures.
type StoreErrType uint32

const (
	// KeyNotFound means the requested item is not in the store.
	KeyNotFound StoreErrType = iota
	// TooLate means the requested item was evicted from a rolling window.
	TooLate
	// Empty means the store section holds no items at all.
	Empty
)

// StoreErr is the error type returned by storage backends. The dataType and
// key fields identify which section of the store, and which item, produced
// the error.
type StoreErr struct {
	dataType string
	errType  StoreErrType
	key      string
}

// NewStoreErr creates a new StoreErr.
func NewStoreErr(dataType string, errType StoreErrType, key string) StoreErr {
	return StoreErr{
		dataType: dataType,
		errType:  errType,
		key:      key,
	}
}

// Error implements the error interface.
func (e StoreErr) Error() string {
	m := ""
	switch e.errType {
	case KeyNotFound:
		m = "Not Found"
	case TooLate:
		m = "Too Late"
	case Empty:
		m = "Empty"
	}

	return fmt.Sprintf("%s, %s, %s", e.dataType, e.key, m)
}

// IsStore checks that an error is a StoreErr and that its code matches the
// provided code.
func IsStore(err error, t StoreErrType) bool {
	storeErr, ok := err.(StoreErr)
	return ok && storeErr.errType == t
}
