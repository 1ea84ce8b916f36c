// Package ownership gates mutations on resources to the user that owns them.
package ownership

import "github.com/vidtube/backend/internal/apperr"

// Owned is implemented by resources with a single owning user.
type Owned interface {
	OwnedBy() string
}

// AssertOwner returns a Forbidden error unless actorID owns resource.
func AssertOwner(actorID string, resource Owned) error {
	if actorID == "" || resource == nil || resource.OwnedBy() != actorID {
		return apperr.Forbidden("you are not the owner of this resource")
	}
	return nil
}
