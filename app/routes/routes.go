package routes

import (
	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"

	"teamboard/app/backend"
	"teamboard/app/controllers"
	"teamboard/app/dashboard"
	"teamboard/app/middleware"
	"teamboard/app/services"
	"teamboard/app/session"
)

// Dependencies are the objects the API routes are served from.
type Dependencies struct {
	Tables    backend.Tables
	Session   *session.Controller
	Members   *services.MemberService
	Posts     *services.PostService
	Auth      *services.AuthService
	Dashboard *dashboard.Dashboard
	Redirect  controllers.Redirector
	Flash     *scs.SessionManager
}

// SetupRoutes defines the dashboard API and returns a router.
func SetupRoutes(d Dependencies) *mux.Router {
	if d.Flash == nil {
		d.Flash = scs.New()
	}
	guard := dashboard.NewGuard()

	router := mux.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.ContentTypeJSON)
	router.Use(d.Flash.LoadAndSave)

	healthController := controllers.NewHealthController(d.Tables)
	authController := controllers.NewAuthController(d.Auth, d.Session, guard, d.Redirect, d.Flash)
	memberController := controllers.NewMemberController(d.Members, d.Dashboard, guard)
	postController := controllers.NewPostController(d.Posts, d.Dashboard, guard, d.Session)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", healthController.Check).Methods("GET")
	api.HandleFunc("/flash", authController.Flash).Methods("GET")

	// Auth endpoints
	authAPI := api.PathPrefix("/auth").Subrouter()
	authAPI.HandleFunc("/signup", authController.SignUp).Methods("POST")
	authAPI.HandleFunc("/signin", authController.SignIn).Methods("POST")
	authAPI.HandleFunc("/signout", authController.SignOut).Methods("POST")
	authAPI.HandleFunc("/reset", authController.Reset).Methods("POST")
	authAPI.HandleFunc("/session", authController.Session).Methods("GET")

	// Members and posts need a signed-in user
	members := api.PathPrefix("/members").Subrouter()
	members.Use(middleware.RequireAuth(d.Session))
	members.HandleFunc("", memberController.Index).Methods("GET")
	members.HandleFunc("", memberController.Create).Methods("POST")
	members.HandleFunc("/bulk", memberController.CreateMany).Methods("POST")
	members.HandleFunc("/{id:[0-9]+}", memberController.Show).Methods("GET")

	posts := api.PathPrefix("/posts").Subrouter()
	posts.Use(middleware.RequireAuth(d.Session))
	posts.HandleFunc("", postController.Index).Methods("GET")
	posts.HandleFunc("", postController.Create).Methods("POST")
	posts.HandleFunc("/mine", postController.Mine).Methods("GET")
	// Opening a post counts a view, so this GET is not idempotent. Clients
	// that only need the count bump it with POST /posts/{id}/views.
	posts.HandleFunc("/{id:[0-9]+}", postController.Show).Methods("GET")
	posts.HandleFunc("/{id:[0-9]+}/views", postController.View).Methods("POST")

	return router
}
