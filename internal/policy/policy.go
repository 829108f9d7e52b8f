// Package policy holds the read and write predicates applied to every
// project-scoped resource.
package policy

import "github.com/google/uuid"

// HasAuthor is implemented by resources that record who created them.
type HasAuthor interface {
	AuthorUUID() (uuid.UUID, bool)
}

// WriteRule decides whether actor may modify or delete obj.
type WriteRule func(actor uuid.UUID, obj HasAuthor) bool

// CanWrite allows the recorded author and nobody else. Objects whose author
// was deleted are writable by no one.
func CanWrite(actor uuid.UUID, obj HasAuthor) bool {
	if obj == nil {
		return false
	}
	author, ok := obj.AuthorUUID()
	return ok && author == actor
}

// AllowAll is the write rule for resource kinds that carry no author.
func AllowAll(uuid.UUID, HasAuthor) bool {
	return true
}

// CanRead allows the object's author, the project's author and any
// contributor of the project. objectAuthor may be nil for a project itself
// or for rows whose author was deleted.
func CanRead(actor uuid.UUID, objectAuthor *uuid.UUID, projectAuthor uuid.UUID, isMember bool) bool {
	if objectAuthor != nil && *objectAuthor == actor {
		return true
	}
	return projectAuthor == actor || isMember
}

// AuthorOf is a small helper for callers holding a HasAuthor.
func AuthorOf(obj HasAuthor) *uuid.UUID {
	if obj == nil {
		return nil
	}
	id, ok := obj.AuthorUUID()
	if !ok {
		return nil
	}
	return &id
}
