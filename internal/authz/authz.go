// Package authz holds the whole authorization policy in one table so
// the route/flag mapping stays auditable. Role flags are independent
// booleans combined per action; there is no hierarchy between them.
package authz

import (
	"net/http"

	"labstock/internal/auth"
	"labstock/internal/models"
)

type Action string

const (
	ItemsRead   Action = "items:read"
	ItemsEdit   Action = "items:edit"
	ItemsTake   Action = "items:take"
	RoomsRead   Action = "rooms:read"
	RoomsEdit   Action = "rooms:edit"
	UsersManage Action = "users:manage"
	LogsReadAll Action = "logs:read_all"
)

// policy maps every action to the predicate over role flags that
// grants it.
var policy = map[Action]func(u *models.User) bool{
	ItemsRead: func(u *models.User) bool { return u.IsPartOfLab },
	ItemsEdit: func(u *models.User) bool { return u.IsPartOfLab && u.CanEditItems },
	ItemsTake: func(u *models.User) bool { return u.IsPartOfLab },
	RoomsRead: func(u *models.User) bool { return u.IsPartOfLab },
	RoomsEdit: func(u *models.User) bool { return u.IsPartOfLab && u.CanEditLabs },

	// The admin surface is outside the lab-flag scheme: superusers or
	// user editors.
	UsersManage: func(u *models.User) bool { return u.IsSuperuser || u.CanEditUsers },
	LogsReadAll: func(u *models.User) bool { return u.IsSuperuser || u.CanEditUsers },
}

// Can reports whether the user may perform the action. Unknown actions
// are denied.
func Can(u *models.User, a Action) bool {
	if u == nil {
		return false
	}
	check, ok := policy[a]
	if !ok {
		return false
	}
	return check(u)
}

// Require is route middleware for surfaces where the permission check
// runs before anything else (admin routes, room writes).
func Require(a Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Can(auth.UserFrom(r.Context()), a) {
				http.Error(w, "not enough permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
