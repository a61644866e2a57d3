package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type names a tenant lifecycle event.
type Type string

const (
	TenantCreated Type = "TENANT_CREATED"
	TenantDeleted Type = "TENANT_DELETED"
)

// Stream field names.
const (
	fieldID         = "id"
	fieldType       = "type"
	fieldTenantID   = "tenant_id"
	fieldOccurredAt = "occurred_at"
	fieldPayload    = "payload"
)

// Event is a tenant lifecycle notification published by the tenant service.
// Payload carries type-specific data, such as the initial administrator
// account of a newly created tenant.
type Event struct {
	ID         uuid.UUID
	Type       Type
	TenantID   string
	OccurredAt time.Time
	Payload    json.RawMessage
}

// NewEvent builds an event with a fresh id. A nil payload is omitted.
func NewEvent(t Type, tenantID string, payload any) (Event, error) {
	e := Event{
		ID:         uuid.New(),
		Type:       t,
		TenantID:   tenantID,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, errors.Join(ErrMalformedEvent, err)
		}
		e.Payload = raw
	}
	return e, nil
}

// DecodePayload unmarshals the event payload into v.
func (e Event) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrMalformedEvent)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return errors.Join(ErrMalformedEvent, err)
	}
	return nil
}

// Values encodes the event as stream entry fields.
func (e Event) Values() map[string]any {
	v := map[string]any{
		fieldID:         e.ID.String(),
		fieldType:       string(e.Type),
		fieldTenantID:   e.TenantID,
		fieldOccurredAt: e.OccurredAt.Format(time.RFC3339Nano),
	}
	if len(e.Payload) > 0 {
		v[fieldPayload] = string(e.Payload)
	}
	return v
}

// Decode parses stream entry fields into an event.
func Decode(values map[string]any) (Event, error) {
	str := func(key string) string {
		s, _ := values[key].(string)
		return s
	}

	id, err := uuid.Parse(str(fieldID))
	if err != nil {
		return Event{}, errors.Join(ErrMalformedEvent, err)
	}

	e := Event{
		ID:       id,
		Type:     Type(str(fieldType)),
		TenantID: str(fieldTenantID),
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	if e.TenantID == "" {
		return Event{}, fmt.Errorf("%w: missing tenant id", ErrMalformedEvent)
	}

	if ts := str(fieldOccurredAt); ts != "" {
		if e.OccurredAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return Event{}, errors.Join(ErrMalformedEvent, err)
		}
	}
	if p := str(fieldPayload); p != "" {
		if !json.Valid([]byte(p)) {
			return Event{}, fmt.Errorf("%w: payload is not JSON", ErrMalformedEvent)
		}
		e.Payload = json.RawMessage(p)
	}
	return e, nil
}
