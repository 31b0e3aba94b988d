package services

import "fmt"

// StorageError wraps a failure of the underlying persistence during a read
// or upsert. It is not retried here; callers decide what to do with it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// FeedError wraps a failure of an external feed call (fixtures or completed
// games). Handlers surface it as a 503 rather than a server fault.
type FeedError struct {
	Feed string
	Err  error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("%s feed: %v", e.Feed, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}
