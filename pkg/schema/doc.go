// Package schema maps tenant identifiers to PostgreSQL schema names and
// administers tenant schemas.
//
// A tenant is provisioned exactly when its schema exists; there is no
// separate registry. Naming is a pure function of the tenant id and never
// case-folds or truncates, so distinct ids always map to distinct schemas.
package schema
