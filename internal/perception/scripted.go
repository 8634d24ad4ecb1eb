package perception

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/your-org/homewatch/internal/models"
)

const historyCap = 100

// ScriptedPerception cycles through canned scenarios. Used in
// development when no camera feed is wired up, and in tests.
type ScriptedPerception struct {
	mu        sync.Mutex
	scenarios []scenario
	history   map[string][]models.Scene
	now       func() time.Time
}

type scenario struct {
	objects []models.DetectedObject
	motion  bool
}

func NewScriptedPerception() *ScriptedPerception {
	return &ScriptedPerception{
		scenarios: []scenario{
			{objects: nil, motion: false},
			{objects: []models.DetectedObject{{Type: "cat", Confidence: 0.92}}, motion: true},
			{objects: []models.DetectedObject{{Type: "person", Confidence: 0.85}}, motion: true},
			{objects: []models.DetectedObject{{Type: "dog", Confidence: 0.78}}, motion: true},
			{objects: []models.DetectedObject{
				{Type: "person", Confidence: 0.72},
				{Type: "cat", Confidence: 0.88},
			}, motion: true},
		},
		history: make(map[string][]models.Scene),
		now:     time.Now,
	}
}

func (p *ScriptedPerception) GetLatestScene(_ context.Context, cameraID string) (*models.Scene, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sc := p.scenarios[rand.Intn(len(p.scenarios))]
	scene := models.Scene{
		CameraID:  cameraID,
		Timestamp: p.now().UTC(),
		Objects:   sc.objects,
		Motion:    sc.motion,
	}
	if sc.motion {
		score := rand.Float64()
		scene.MotionScore = &score
	}

	hist := append(p.history[cameraID], scene)
	if len(hist) > historyCap {
		hist = hist[len(hist)-historyCap:]
	}
	p.history[cameraID] = hist

	return &scene, nil
}

func (p *ScriptedPerception) GetSceneHistory(_ context.Context, cameraID string, since time.Time) ([]models.Scene, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []models.Scene
	for _, s := range p.history[cameraID] {
		if !s.Timestamp.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (p *ScriptedPerception) RequestSnapshot(_ context.Context, cameraID string) (string, error) {
	return "https://example.com/snapshots/" + cameraID + "/latest.jpg", nil
}
