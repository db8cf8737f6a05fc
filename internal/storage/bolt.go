package storage

import (
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketDeployments     = "deployments"
	bucketDeploymentIndex = "deployment_index"
	bucketIngress         = "ingress"
)

// Store wraps a bbolt database holding deployment history and ingress server PIDs
type Store struct {
	db *bbolt.DB
}

// NewStore opens a bbolt database at the given path and initializes required buckets
func NewStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketDeployments, bucketDeploymentIndex, bucketIngress} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the bbolt database
func (s *Store) Close() error {
	return s.db.Close()
}
