package services

import (
	"github.com/BanhTuanKiet/ProjectManagement-sub001/models"
)

// UnknownDisplayName is used when the authenticated principal carries no
// display-name claim.
const UnknownDisplayName = "Unknown"

// ResolveIdentity derives the identity a connection will run under from
// the claims the auth middleware validated. It never fails: a connection
// without a user-id claim degrades to an anonymous identity keyed by its
// transport connection id, which is never deduplicated against other
// connections of the same person.
func ResolveIdentity(userID, displayName, connectionID string) models.ConnectionIdentity {
	if userID == "" {
		userID = connectionID
	}
	if displayName == "" {
		displayName = UnknownDisplayName
	}
	return models.ConnectionIdentity{
		UserID:      userID,
		DisplayName: displayName,
	}
}
