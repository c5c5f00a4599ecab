// games/access.go
package games

import "minigame-publish-system/models"

const RoleSuperAdmin = "SUPER_ADMIN"

// Requester is the caller identity extracted by the gateway middleware.
type Requester struct {
	UserID string
	Roles  []string
}

func (r Requester) IsAdmin() bool {
	for _, role := range r.Roles {
		if role == RoleSuperAdmin {
			return true
		}
	}
	return false
}

// CanViewPrivate gates detail views, updates and deletes: the creator or a
// super admin.
func CanViewPrivate(game *models.Game, requester Requester) bool {
	return requester.IsAdmin() || (requester.UserID != "" && requester.UserID == game.CreatorID)
}

// CanViewPublic gates the public play view.
func CanViewPublic(game *models.Game) bool {
	return game.IsPublished
}
