package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/homewatch/internal/config"
	"github.com/your-org/homewatch/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

// GetOrCreateUser looks a user up by platform and chat id, registering
// them with default status on first contact.
func (s *PostgresStore) GetOrCreateUser(ctx context.Context, platform models.Platform, chatID, username, firstName string) (*models.User, error) {
	u := &models.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, chat_id, platform, username, first_name, status, timezone, created_at, updated_at
		 FROM users WHERE platform = $1 AND chat_id = $2`, platform, chatID,
	).Scan(&u.ID, &u.ChatID, &u.Platform, &u.Username, &u.FirstName, &u.Status, &u.Timezone, &u.CreatedAt, &u.UpdatedAt)
	if err == nil {
		return u, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("get user: %w", err)
	}

	u = &models.User{
		ID:        uuid.New(),
		ChatID:    chatID,
		Platform:  platform,
		Username:  username,
		FirstName: firstName,
		Status:    models.StatusHome,
		Timezone:  "UTC",
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO users (id, chat_id, platform, username, first_name, status, timezone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`,
		u.ID, u.ChatID, u.Platform, u.Username, u.FirstName, u.Status, u.Timezone,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u := &models.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, chat_id, platform, username, first_name, status, timezone, created_at, updated_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.ChatID, &u.Platform, &u.Username, &u.FirstName, &u.Status, &u.Timezone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UpdateUserStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	return nil
}

// --- Cameras ---

func (s *PostgresStore) GetCameraByDevice(ctx context.Context, deviceID string) (*models.Camera, error) {
	c := &models.Camera{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, device_id, name, is_active, last_heartbeat, created_at
		 FROM cameras WHERE device_id = $1`, deviceID,
	).Scan(&c.ID, &c.UserID, &c.DeviceID, &c.Name, &c.IsActive, &c.LastHeartbeat, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get camera: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetUserCamera(ctx context.Context, userID uuid.UUID) (*models.Camera, error) {
	c := &models.Camera{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, device_id, name, is_active, last_heartbeat, created_at
		 FROM cameras WHERE user_id = $1 AND is_active ORDER BY created_at LIMIT 1`, userID,
	).Scan(&c.ID, &c.UserID, &c.DeviceID, &c.Name, &c.IsActive, &c.LastHeartbeat, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user camera: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCameras(ctx context.Context) ([]models.Camera, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, device_id, name, is_active, last_heartbeat, created_at
		 FROM cameras ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []models.Camera
	for rows.Next() {
		var c models.Camera
		if err := rows.Scan(&c.ID, &c.UserID, &c.DeviceID, &c.Name, &c.IsActive, &c.LastHeartbeat, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		cameras = append(cameras, c)
	}
	return cameras, rows.Err()
}

func (s *PostgresStore) TouchCameraHeartbeat(ctx context.Context, deviceID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE cameras SET last_heartbeat = now() WHERE device_id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("touch camera heartbeat: %w", err)
	}
	return nil
}

// --- Scenes ---

func (s *PostgresStore) CreateScene(ctx context.Context, scene *models.Scene) error {
	scene.ID = uuid.New()
	objects, err := json.Marshal(scene.Objects)
	if err != nil {
		return fmt.Errorf("marshal scene objects: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO scenes (id, camera_id, captured_at, objects, motion, motion_score, snapshot_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		scene.ID, scene.CameraID, scene.Timestamp, objects, scene.Motion, scene.MotionScore, scene.SnapshotKey)
	if err != nil {
		return fmt.Errorf("create scene: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestScene(ctx context.Context, cameraID string) (*models.Scene, error) {
	sc := &models.Scene{}
	var objects []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, camera_id, captured_at, objects, motion, motion_score, snapshot_key
		 FROM scenes WHERE camera_id = $1 ORDER BY captured_at DESC LIMIT 1`, cameraID,
	).Scan(&sc.ID, &sc.CameraID, &sc.Timestamp, &objects, &sc.Motion, &sc.MotionScore, &sc.SnapshotKey)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest scene: %w", err)
	}
	if err := json.Unmarshal(objects, &sc.Objects); err != nil {
		return nil, fmt.Errorf("unmarshal scene objects: %w", err)
	}
	return sc, nil
}

func (s *PostgresStore) GetScene(ctx context.Context, id uuid.UUID) (*models.Scene, error) {
	sc := &models.Scene{}
	var objects []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, camera_id, captured_at, objects, motion, motion_score, snapshot_key
		 FROM scenes WHERE id = $1`, id,
	).Scan(&sc.ID, &sc.CameraID, &sc.Timestamp, &objects, &sc.Motion, &sc.MotionScore, &sc.SnapshotKey)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get scene: %w", err)
	}
	if err := json.Unmarshal(objects, &sc.Objects); err != nil {
		return nil, fmt.Errorf("unmarshal scene objects: %w", err)
	}
	return sc, nil
}

func (s *PostgresStore) SceneHistory(ctx context.Context, cameraID string, since time.Time) ([]models.Scene, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, camera_id, captured_at, objects, motion, motion_score, snapshot_key
		 FROM scenes WHERE camera_id = $1 AND captured_at >= $2 ORDER BY captured_at`, cameraID, since)
	if err != nil {
		return nil, fmt.Errorf("scene history: %w", err)
	}
	defer rows.Close()

	var scenes []models.Scene
	for rows.Next() {
		var sc models.Scene
		var objects []byte
		if err := rows.Scan(&sc.ID, &sc.CameraID, &sc.Timestamp, &objects, &sc.Motion, &sc.MotionScore, &sc.SnapshotKey); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		if err := json.Unmarshal(objects, &sc.Objects); err != nil {
			return nil, fmt.Errorf("unmarshal scene objects: %w", err)
		}
		scenes = append(scenes, sc)
	}
	return scenes, nil
}

// --- Events ---

func (s *PostgresStore) CreateEvent(ctx context.Context, ev *models.Event) error {
	ev.ID = uuid.New()
	ev.CreatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO events (id, user_id, camera_id, scene_id, rule_id, event_type, severity, title, description, acknowledged, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		ev.ID, ev.UserID, ev.CameraID, ev.SceneID, ev.RuleID, ev.EventType,
		ev.Severity, ev.Title, ev.Description, ev.Acknowledged, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *PostgresStore) QueryEvents(ctx context.Context, userID uuid.UUID, since *time.Time, limit, offset int) ([]models.Event, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	baseWhere := "WHERE user_id = $1"
	args := []interface{}{userID}
	if since != nil {
		baseWhere += " AND created_at >= $2"
		args = append(args, *since)
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM events "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT id, user_id, camera_id, scene_id, rule_id, event_type, severity, title, description, acknowledged, acknowledged_at, response, created_at
		 FROM events %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		baseWhere, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var ev models.Event
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.CameraID, &ev.SceneID, &ev.RuleID, &ev.EventType,
			&ev.Severity, &ev.Title, &ev.Description, &ev.Acknowledged, &ev.AcknowledgedAt, &ev.Response, &ev.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, total, nil
}

func (s *PostgresStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var ev models.Event
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, camera_id, scene_id, rule_id, event_type, severity, title, description, acknowledged, acknowledged_at, response, created_at
		 FROM events WHERE id = $1`, id,
	).Scan(&ev.ID, &ev.UserID, &ev.CameraID, &ev.SceneID, &ev.RuleID, &ev.EventType,
		&ev.Severity, &ev.Title, &ev.Description, &ev.Acknowledged, &ev.AcknowledgedAt, &ev.Response, &ev.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &ev, nil
}

// AcknowledgeEvent marks an event as handled with the user's response
// ("viewed", "ignored", "escalated").
func (s *PostgresStore) AcknowledgeEvent(ctx context.Context, id uuid.UUID, response string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE events SET acknowledged = true, acknowledged_at = now(), response = $1 WHERE id = $2`,
		response, id)
	if err != nil {
		return fmt.Errorf("acknowledge event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event not found")
	}
	return nil
}

// RecentEventsSummary renders the user's last-24h events into one line
// per event, for the conversation system prompt.
func (s *PostgresStore) RecentEventsSummary(ctx context.Context, userID uuid.UUID) (string, error) {
	since := time.Now().UTC().Add(-24 * time.Hour)
	events, _, err := s.QueryEvents(ctx, userID, &since, 10, 0)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "", nil
	}

	summary := ""
	for _, ev := range events {
		summary += fmt.Sprintf("- %s: %s (%s)\n", ev.CreatedAt.Format("15:04"), ev.Title, ev.Severity)
	}
	return summary, nil
}

// --- Conversation log ---

// LogMessage records one inbound or outbound message for audit and
// conversation history. Direction is "inbound" or "outbound".
func (s *PostgresStore) LogMessage(ctx context.Context, userID uuid.UUID, direction, content string, msgType models.MessageType, externalID string, intent models.Intent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, user_id, direction, content, message_type, external_id, intent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), userID, direction, content, msgType, externalID, intent)
	if err != nil {
		return fmt.Errorf("log message: %w", err)
	}
	return nil
}

// ConversationHistory returns the user's most recent message turns in
// chronological order, capped at limit.
func (s *PostgresStore) ConversationHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.StoredMessage, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, direction, content, message_type, external_id, intent, created_at
		 FROM (
			SELECT id, user_id, direction, content, message_type, external_id, intent, created_at
			FROM messages WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
		 ) m ORDER BY created_at`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation history: %w", err)
	}
	defer rows.Close()

	var msgs []models.StoredMessage
	for rows.Next() {
		var m models.StoredMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Direction, &m.Content, &m.MessageType, &m.ExternalID, &m.Intent, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
