// Package perception provides the camera-side collaborator: scene
// snapshots persisted by the ingest path, snapshot URLs served from
// object storage.
package perception

import (
	"context"
	"fmt"
	"time"

	"github.com/your-org/homewatch/internal/models"
	"github.com/your-org/homewatch/internal/storage"
)

const snapshotURLExpiry = 15 * time.Minute

// StorePerception serves scenes from Postgres and snapshots from
// MinIO via presigned URLs.
type StorePerception struct {
	db    *storage.PostgresStore
	minio *storage.MinIOStore
}

func NewStorePerception(db *storage.PostgresStore, minio *storage.MinIOStore) *StorePerception {
	return &StorePerception{db: db, minio: minio}
}

func (p *StorePerception) GetLatestScene(ctx context.Context, cameraID string) (*models.Scene, error) {
	scene, err := p.db.LatestScene(ctx, cameraID)
	if err != nil {
		return nil, fmt.Errorf("latest scene for %s: %w", cameraID, err)
	}
	return scene, nil
}

func (p *StorePerception) GetSceneHistory(ctx context.Context, cameraID string, since time.Time) ([]models.Scene, error) {
	return p.db.SceneHistory(ctx, cameraID, since)
}

// RequestSnapshot returns a presigned URL for the camera's most recent
// snapshot, or "" when the camera has no stored snapshot.
func (p *StorePerception) RequestSnapshot(ctx context.Context, cameraID string) (string, error) {
	scene, err := p.db.LatestScene(ctx, cameraID)
	if err != nil {
		return "", fmt.Errorf("latest scene for %s: %w", cameraID, err)
	}
	if scene == nil || scene.SnapshotKey == "" {
		return "", nil
	}
	return p.minio.PresignedURL(ctx, scene.SnapshotKey, snapshotURLExpiry)
}
