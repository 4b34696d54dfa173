package interaction

import (
	"context"
	"slices"

	"github.com/binarydesk/deposit-service/internal/restapi/common"
)

type IdentityManager struct {
	subject          string
	isAdmin          bool
	isAPITokenCall   bool
	isRegisteredUser bool
}

func (i *IdentityManager) IsAdmin() bool {
	return i.isAdmin
}

func (i *IdentityManager) IsAPITokenCall() bool {
	return i.isAPITokenCall
}

func (i *IdentityManager) IsRegisteredUser() bool {
	return i.isRegisteredUser && i.subject != ""
}

// HasElevatedAccess is true for admins and service calls made with the api token.
func (i *IdentityManager) HasElevatedAccess() bool {
	return i.isAdmin || i.isAPITokenCall
}

func (i *IdentityManager) Subject() string {
	return i.subject
}

// Reviewer names the identity in audit fields.
func (i *IdentityManager) Reviewer() string {
	if i.isAPITokenCall {
		return "api"
	}
	return i.subject
}

func NewIdentityManager(ctx context.Context, adminRole string) *IdentityManager {
	manager := &IdentityManager{}
	if _, ok := ctx.Value(common.CtxKeyAPIKey{}).(string); ok {
		manager.isAPITokenCall = true
		return manager
	}

	if _, ok := ctx.Value(common.CtxKeyToken{}).(string); ok {
		if claims, ok := ctx.Value(common.CtxKeyClaims{}).(*common.AllClaims); ok {
			manager.subject = claims.Subject
			manager.isRegisteredUser = true
			manager.isAdmin = adminRole != "" && slices.Contains(claims.Global.Roles, adminRole)
		}
	}

	return manager
}
