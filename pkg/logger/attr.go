package logger

import (
	"log/slog"
	"time"
)

// Attribute keys shared by every package so records can be filtered by
// tenant or schema regardless of which component wrote them.
const (
	KeyTenant    = "tenant_id"
	KeySchema    = "schema"
	KeyRequestID = "request_id"
)

// Error records err under "error". A nil error yields an empty Attr, which
// slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Tenant records the tenant id. An empty id yields an empty Attr.
func Tenant(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String(KeyTenant, id)
}

func Schema(name string) slog.Attr {
	return slog.String(KeySchema, name)
}

func Schemas(names []string) slog.Attr {
	return slog.Any("schemas", names)
}

// RequestID records the correlation id of the unit of work.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String(KeyRequestID, id)
}

func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// Strategy records the fallback strategy applied to a unit of work.
func Strategy(s string) slog.Attr {
	return slog.String("strategy", s)
}

func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// MessageID records the id of a stream entry or event.
func MessageID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("message_id", id)
}

func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}
