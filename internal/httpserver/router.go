package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"labstock/internal/auth"
	"labstock/internal/authz"
	"labstock/internal/httpserver/handlers"
)

func NewRouter(db *gorm.DB, lg *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Post("/v1/auth/login", handlers.Login(db, lg))
	r.Post("/v1/auth/signup", handlers.Signup(db, lg))

	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth(db))

		protected.Get("/v1/me", handlers.Me(db, lg))
		protected.Patch("/v1/me", handlers.UpdateMe(db, lg))
		protected.Post("/v1/auth/password", handlers.ChangePassword(db, lg))

		// Item routes check permissions in the handler: existence is
		// reported before authorization, and listing soft-denies.
		protected.Route("/v1/items", func(items chi.Router) {
			items.Get("/", handlers.ListItems(db, lg))
			items.Post("/", handlers.CreateItem(db, lg))
			items.Get("/{id}", handlers.GetItem(db, lg))
			items.Put("/{id}", handlers.UpdateItem(db, lg))
			items.Put("/{id}/take", handlers.TakeItem(db, lg))
			items.Delete("/{id}", handlers.DeleteItem(db, lg))
		})

		protected.Route("/v1/rooms", func(rooms chi.Router) {
			rooms.Get("/", handlers.ListRooms(db, lg))
			rooms.Post("/", handlers.CreateRoom(db, lg))
			rooms.Get("/{id}", handlers.GetRoom(db, lg))
			rooms.Put("/{id}", handlers.UpdateRoom(db, lg))
			rooms.Delete("/{id}", handlers.DeleteRoom(db, lg))
		})

		protected.Get("/v1/logs", handlers.Logs(db, lg))

		protected.Group(func(admin chi.Router) {
			admin.Use(authz.Require(authz.UsersManage))
			admin.Get("/v1/users", handlers.ListUsers(db, lg))
			admin.Post("/v1/users", handlers.CreateUser(db, lg))
			admin.Patch("/v1/users/{id}", handlers.UpdateUser(db, lg))
			admin.Patch("/v1/users/{id}/permissions", handlers.UpdatePermissions(db, lg))
			admin.Delete("/v1/users/{id}", handlers.DeleteUser(db, lg))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
