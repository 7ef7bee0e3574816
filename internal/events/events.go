// Package events implements the append-only audit log and its forward
// pagination. Events carry a free-form type and JSON payload; the log
// imposes no schema, it only guarantees (created_at, id) ordering.
package events

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eliejuven/PR-Arena/internal/apperr"
	"github.com/eliejuven/PR-Arena/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Limits for Page.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Log appends one event. Callers pass their open transaction so the append
// commits or rolls back with the operation it records.
func Log(tx *gorm.DB, eventType string, payload map[string]any, actorAgentID *string) (*models.Event, error) {
	raw := "{}"
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("events: marshal payload: %w", err)
		}
		raw = string(data)
	}

	event := models.Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		Payload:      raw,
		ActorAgentID: actorAgentID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := tx.Create(&event).Error; err != nil {
		return nil, fmt.Errorf("events: append: %w", err)
	}
	return &event, nil
}

// EncodeCursor packs the ordering key of the last item on a page into an
// opaque token.
func EncodeCursor(createdAt time.Time, id string) string {
	raw := createdAt.UTC().Format(time.RFC3339Nano) + "|" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor unpacks a token produced by EncodeCursor. Malformed input is
// InvalidInput, never silently ignored.
func DecodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", apperr.InvalidInput("Invalid cursor")
	}
	createdStr, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return time.Time{}, "", apperr.InvalidInput("Invalid cursor")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return time.Time{}, "", apperr.InvalidInput("Invalid cursor")
	}
	return createdAt, id, nil
}

// Page returns up to limit events after the cursor position, oldest first.
// nextCursor is non-nil iff more events exist beyond the returned page.
func Page(gormDB *gorm.DB, cursor string, limit int) (items []models.Event, nextCursor *string, err error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	query := gormDB.Model(&models.Event{})
	if cursor != "" {
		createdAt, id, err := DecodeCursor(cursor)
		if err != nil {
			return nil, nil, err
		}
		query = query.Where("created_at > ? OR (created_at = ? AND id > ?)", createdAt, createdAt, id)
	}

	// Fetch one extra row to learn whether a next page exists.
	var rows []models.Event
	if err := query.Order("created_at ASC, id ASC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("events: page: %w", err)
	}

	if len(rows) > limit {
		last := rows[limit-1]
		c := EncodeCursor(last.CreatedAt, last.ID)
		nextCursor = &c
		rows = rows[:limit]
	}
	return rows, nextCursor, nil
}
