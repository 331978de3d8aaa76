package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ait-forum/forum-api/internal/api/handler"
	"github.com/ait-forum/forum-api/internal/api/middleware"
	"github.com/ait-forum/forum-api/internal/core/authz"
	"github.com/ait-forum/forum-api/internal/core/password"
	"github.com/ait-forum/forum-api/internal/core/ports"
)

// Dependencies carries everything the router needs to assemble the routes.
type Dependencies struct {
	Accounts    ports.AccountService
	Posts       ports.PostService
	AccountRepo ports.AccountRepository
	Hasher      *password.Hasher
	JWTSecret   string

	Mongo *mongo.Database
	Redis *redis.Client
	Log   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("forum"))

	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	accountHandler := handler.NewAccountHandler(deps.Accounts)
	forumHandler := handler.NewForumHandler(deps.Posts)
	healthHandler := handler.NewHealthHandler(deps.Mongo, deps.Redis)

	auth := middleware.Auth(deps.AccountRepo, deps.Hasher, deps.JWTSecret)

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Public routes ---
	e.POST("/account/register", accountHandler.Register)
	e.POST("/account/login", accountHandler.Login)
	e.GET("/forum/post/:id", forumHandler.Get)
	e.GET("/forum/posts/author/:author", forumHandler.ByAuthor)
	e.GET("/forum/posts/tags", forumHandler.ByTags)
	e.GET("/forum/posts/period", forumHandler.ByPeriod)

	// --- Account routes (authenticated) ---
	account := e.Group("/account", auth)
	account.GET("/user/:login", accountHandler.Get,
		middleware.Authorize(authz.ActionViewAccount, "login"))
	account.PATCH("/user/:login", accountHandler.Update,
		middleware.Authorize(authz.ActionUpdateProfile, "login"))
	account.DELETE("/user/:login", accountHandler.Delete,
		middleware.Authorize(authz.ActionDeleteAccount, "login"))
	account.PUT("/password/:login", accountHandler.ChangePassword,
		middleware.Authorize(authz.ActionChangePassword, "login"))
	account.PATCH("/password", accountHandler.SetPassword)
	account.PUT("/role/:login/:role", accountHandler.AddRole,
		middleware.Authorize(authz.ActionMutateRoles, "login"))
	account.DELETE("/role/:login/:role", accountHandler.RemoveRole,
		middleware.Authorize(authz.ActionMutateRoles, "login"))

	// --- Forum routes (authenticated) ---
	forum := e.Group("/forum", auth)
	forum.POST("/post/:author", forumHandler.Create,
		middleware.Authorize(authz.ActionCreatePost, "author"))
	forum.PATCH("/post/:id", forumHandler.Update,
		middleware.Authorize(authz.ActionUpdatePost, ""))
	// Delete checks ownership in the handler: the owner is the post's
	// author, which is not present in the path.
	forum.DELETE("/post/:id", forumHandler.Delete)
	forum.POST("/post/:id/comment/:author", forumHandler.AddComment,
		middleware.Authorize(authz.ActionAddComment, "author"))
	forum.PATCH("/post/:id/comment/:cid/like", forumHandler.AddLike,
		middleware.Authorize(authz.ActionLikeComment, ""))

	return e
}
