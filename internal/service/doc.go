// Package service contains the business logic of the resource registry:
// per-entity stores over an injected *gorm.DB, the change-diff audit
// wiring, the server tree assembler, and the search dispatcher.
//
// Every mutation runs inside one transaction spanning the entity write
// and the audit log write. Concurrent updates to the same row are
// serialized by the database; there is no optimistic version check, so
// last-writer-wins is the effective policy for overlapping updates.
package service
