package storage

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hakim/examkit/internal/models"
	"go.etcd.io/bbolt"
)

// NewDeployment creates a running deployment record with a fresh ID
func NewDeployment(kind models.DeploymentKind, root string) *models.Deployment {
	return &models.Deployment{
		ID:        uuid.New().String(),
		Kind:      kind,
		Root:      root,
		StartedAt: time.Now(),
		Status:    models.StatusRunning,
		Errors:    map[string]string{},
	}
}

// SaveDeployment persists a deployment record and indexes it by kind
func (s *Store) SaveDeployment(d *models.Deployment) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}

		deployments := tx.Bucket([]byte(bucketDeployments))
		if err := deployments.Put([]byte(d.ID), data); err != nil {
			return err
		}

		// kind -> []deployment_id
		index := tx.Bucket([]byte(bucketDeploymentIndex))
		kindKey := []byte(d.Kind)

		var ids []string
		if existing := index.Get(kindKey); existing != nil {
			if err := json.Unmarshal(existing, &ids); err != nil {
				return err
			}
		}

		for _, id := range ids {
			if id == d.ID {
				return nil
			}
		}
		ids = append(ids, d.ID)

		indexData, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		return index.Put(kindKey, indexData)
	})
}

// GetDeployment retrieves a deployment by ID. Returns nil, nil when absent.
func (s *Store) GetDeployment(id string) (*models.Deployment, error) {
	var d *models.Deployment

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketDeployments)).Get([]byte(id))
		if data == nil {
			return nil
		}
		d = &models.Deployment{}
		return json.Unmarshal(data, d)
	})

	return d, err
}

// ListDeployments returns deployments of the given kind, or all kinds when kind is
// empty, newest first
func (s *Store) ListDeployments(kind models.DeploymentKind) ([]*models.Deployment, error) {
	var out []*models.Deployment

	err := s.db.View(func(tx *bbolt.Tx) error {
		deployments := tx.Bucket([]byte(bucketDeployments))

		if kind == "" {
			return deployments.ForEach(func(_, v []byte) error {
				var d models.Deployment
				if err := json.Unmarshal(v, &d); err != nil {
					return err
				}
				out = append(out, &d)
				return nil
			})
		}

		data := tx.Bucket([]byte(bucketDeploymentIndex)).Get([]byte(kind))
		if data == nil {
			return nil
		}
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		for _, id := range ids {
			raw := deployments.Get([]byte(id))
			if raw == nil {
				continue
			}
			var d models.Deployment
			if err := json.Unmarshal(raw, &d); err != nil {
				return err
			}
			out = append(out, &d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// FinishDeployment stamps the final status, targets and per-target errors
func (s *Store) FinishDeployment(d *models.Deployment, status models.Status) error {
	now := time.Now()
	d.Status = status
	d.CompletedAt = &now
	return s.SaveDeployment(d)
}
