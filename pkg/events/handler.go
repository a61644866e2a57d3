package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hermeshr/tenancy/pkg/logger"
	"github.com/hermeshr/tenancy/pkg/tenant"
)

// Provisioner creates and removes tenant schemas.
type Provisioner interface {
	InitializeTenantSchema(ctx context.Context, tenantID string) error
	DropTenantSchema(ctx context.Context, tenantID string) error
}

// Hook runs after a tenant schema was provisioned, bound to the new tenant.
// Hooks must tolerate being run again for the same event, because a failed
// event is redelivered.
type Hook func(ctx context.Context, e Event) error

// Handler applies tenant lifecycle events to the database.
type Handler struct {
	provisioner Provisioner
	afterCreate []Hook
	log         *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithAfterCreate registers hooks run in order after TENANT_CREATED.
func WithAfterCreate(hooks ...Hook) HandlerOption {
	return func(h *Handler) { h.afterCreate = append(h.afterCreate, hooks...) }
}

// WithHandlerLogger sets the handler logger.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHandler creates a handler provisioning schemas through p.
func NewHandler(p Provisioner, opts ...HandlerOption) *Handler {
	h := &Handler{provisioner: p, log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle dispatches e by type. TENANT_CREATED provisions the schema and then
// runs the after-create hooks under the new tenant; TENANT_DELETED drops
// the schema.
func (h *Handler) Handle(ctx context.Context, e Event) error {
	log := h.log.With(
		logger.MessageID(e.ID.String()),
		logger.EventType(string(e.Type)),
		logger.Tenant(e.TenantID),
	)

	switch e.Type {
	case TenantCreated:
		if err := h.provisioner.InitializeTenantSchema(ctx, e.TenantID); err != nil {
			return err
		}
		for _, hook := range h.afterCreate {
			if err := tenant.Run(ctx, e.TenantID, func(ctx context.Context) error {
				return hook(ctx, e)
			}); err != nil {
				return errors.Join(ErrHookFailed, err)
			}
		}
		log.InfoContext(ctx, "Tenant provisioned")
		return nil

	case TenantDeleted:
		if err := h.provisioner.DropTenantSchema(ctx, e.TenantID); err != nil {
			return err
		}
		log.InfoContext(ctx, "Tenant schema dropped")
		return nil
	}

	return ErrUnknownEventType
}
