package schema

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultPrefix is prepended to tenant identifiers when no prefix is configured.
const DefaultPrefix = "tenant_"

// MaxIdentifierLength is the PostgreSQL limit for identifiers (NAMEDATALEN-1).
// Longer names are silently truncated by the server, which would let two
// tenants collapse onto the same schema.
const MaxIdentifierLength = 63

// Naming maps tenant identifiers to schema names.
// The zero value uses DefaultPrefix.
type Naming struct {
	prefix string
}

// NewNaming returns a Naming using the given prefix.
// An empty prefix falls back to DefaultPrefix.
func NewNaming(prefix string) Naming {
	return Naming{prefix: prefix}
}

// Prefix returns the schema name prefix.
func (n Naming) Prefix() string {
	if n.prefix == "" {
		return DefaultPrefix
	}
	return n.prefix
}

// SchemaName returns prefix + tenantID. It has no side effects and never
// alters the identifier, so distinct ids always produce distinct names.
func (n Naming) SchemaName(tenantID string) string {
	return n.Prefix() + tenantID
}

// TenantID reverses SchemaName. The second value is false when the
// name does not follow the naming convention.
func (n Naming) TenantID(schemaName string) (string, bool) {
	id, ok := strings.CutPrefix(schemaName, n.Prefix())
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// IsTenantSchema reports whether name was produced by this Naming.
func (n Naming) IsTenantSchema(name string) bool {
	_, ok := n.TenantID(name)
	return ok
}

// Validate checks that tenantID can be turned into a usable schema name.
func (n Naming) Validate(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return errors.Join(ErrInvalidTenantID, errors.New("identifier is blank"))
	}
	for _, r := range tenantID {
		if !isIdentRune(r) {
			return errors.Join(ErrInvalidTenantID, fmt.Errorf("unsupported character %q", r))
		}
	}
	if len(n.SchemaName(tenantID)) > MaxIdentifierLength {
		return errors.Join(ErrInvalidTenantID, fmt.Errorf("schema name exceeds %d bytes", MaxIdentifierLength))
	}
	return nil
}

// ValidateSchemaName checks a schema name that is about to be used in DDL.
func (n Naming) ValidateSchemaName(name string) error {
	id, ok := n.TenantID(name)
	if !ok {
		return errors.Join(ErrInvalidSchemaName, fmt.Errorf("missing prefix %q", n.Prefix()))
	}
	if err := n.Validate(id); err != nil {
		return errors.Join(ErrInvalidSchemaName, err)
	}
	return nil
}

func isIdentRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	}
	return false
}
