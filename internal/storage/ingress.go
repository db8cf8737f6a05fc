package storage

import (
	"encoding/json"
	"strconv"

	"github.com/hakim/examkit/internal/models"
	"go.etcd.io/bbolt"
)

// SaveIngress records a spawned ingress server keyed by PID
func (s *Store) SaveIngress(rec models.IngressRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketIngress)).Put([]byte(strconv.Itoa(rec.PID)), data)
	})
}

// ListIngress returns every tracked ingress server
func (s *Store) ListIngress() ([]models.IngressRecord, error) {
	var out []models.IngressRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketIngress)).ForEach(func(_, v []byte) error {
			var rec models.IngressRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	return out, err
}

// DeleteIngress forgets a tracked server
func (s *Store) DeleteIngress(pid int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketIngress)).Delete([]byte(strconv.Itoa(pid)))
	})
}
