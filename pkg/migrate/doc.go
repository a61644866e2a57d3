// Package migrate provisions tenant schemas and keeps them migrated.
//
// Runner creates a tenant's schema and applies the tenant migrations to it
// through an Engine; GooseEngine runs goose against one schema at a time,
// with the version table inside that schema and an advisory lock per
// schema. Reconciler runs once at startup and migrates every existing
// tenant schema sequentially; one schema's failure never stops the others.
//
// What a failed startup migration means is a Policy: PolicyContinue serves
// every tenant anyway, PolicyIsolate rejects requests for the affected
// tenants through Availability, PolicyAbort fails startup.
package migrate
