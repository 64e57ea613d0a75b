// Package storage provides the flat record store shared by accounts, sessions
// and comments.
package storage

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrBucketNotFound is returned when the bucket has never been written.
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrExists is returned by Create when the record is already present.
	ErrExists = errors.New("record already exists")
)

// Repository defines the interface for flat key-value record storage.
// Records are addressed by bucket, record type and record ID. Values are
// opaque bytes; callers own the encoding.
type Repository interface {
	Put(bucket, recordType, recordID string, data []byte) error
	// Create stores the record only if it is absent, returning ErrExists
	// otherwise. The check and the write happen atomically.
	Create(bucket, recordType, recordID string, data []byte) error
	Get(bucket, recordType, recordID string) ([]byte, error)
	// List returns the record IDs of the given type in ascending byte order.
	List(bucket, recordType string) ([]string, error)
	Delete(bucket, recordType, recordID string) error
}
