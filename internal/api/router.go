package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/madeeasy/coursehub/internal/api/handler"
	"github.com/madeeasy/coursehub/internal/api/middleware"
	"github.com/madeeasy/coursehub/internal/core/ports"
	"github.com/madeeasy/coursehub/internal/token"
)

// newEcho builds the shared server shell: recovery, request IDs, request
// logging, HTTP metrics, the error envelope, request validation, and the
// health probes. subsystem labels the per-route HTTP metrics and must be a
// valid Prometheus subsystem (underscores, not dashes).
func newEcho(subsystem string, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware(subsystem))

	e.GET("/metrics", echoprometheus.NewHandler())

	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}

// NewAuthRouter wires the auth service's routes. The auth service validates
// tokens against its own store, so it is its own TokenValidator.
func NewAuthRouter(
	svc ports.AuthService,
	codec *token.Codec,
	authz *middleware.Authorizer,
	db *mongo.Database,
	rdb *redis.Client,
	log zerolog.Logger,
) *echo.Echo {
	e := newEcho("auth_service", db, rdb, log)

	h := handler.NewAuthHandler(svc)
	guard := middleware.Auth(codec, svc, authz, log)

	g := e.Group("/auth-service", guard)
	g.POST("/sign-up", h.SignUp)
	g.POST("/sign-in", h.SignIn)
	g.POST("/log-out", h.LogOut)
	g.POST("/refresh-token/:token", h.Refresh)
	g.POST("/validate-access-token/:token", h.ValidateAccessToken)
	g.PATCH("/partial-update/:email", h.PartialUpdate)

	return e
}

// NewUserRouter wires the user service's routes. Listing and deletion are
// admin operations regardless of what the rule table says.
func NewUserRouter(
	svc ports.UserService,
	codec *token.Codec,
	validator ports.TokenValidator,
	authz *middleware.Authorizer,
	db *mongo.Database,
	rdb *redis.Client,
	log zerolog.Logger,
) *echo.Echo {
	e := newEcho("user_service", db, rdb, log)

	h := handler.NewUserHandler(svc)
	guard := middleware.Auth(codec, validator, authz, log)

	g := e.Group("/user-service", guard)
	g.POST("/create", h.Create)
	g.GET("/get-all", h.GetAll, middleware.RequireRoles("ADMIN"))
	g.GET("/get/:email", h.GetByEmail)
	g.PATCH("/partial-update/:email", h.PartialUpdate)
	g.DELETE("/delete/:email", h.Delete, middleware.RequireRoles("ADMIN"))

	return e
}

// NewCourseRouter wires the course service's routes.
func NewCourseRouter(
	svc ports.CourseService,
	codec *token.Codec,
	validator ports.TokenValidator,
	authz *middleware.Authorizer,
	db *mongo.Database,
	rdb *redis.Client,
	log zerolog.Logger,
) *echo.Echo {
	e := newEcho("course_service", db, rdb, log)

	h := handler.NewCourseHandler(svc)
	guard := middleware.Auth(codec, validator, authz, log)

	g := e.Group("/api/courses", guard)
	g.POST("", h.Create, middleware.RequireRoles("ADMIN"))
	g.GET("", h.GetAll)
	g.GET("/:id", h.GetByID)
	g.GET("/code/:courseCode", h.GetByCode)
	g.DELETE("/:id", h.Delete, middleware.RequireRoles("ADMIN"))

	return e
}

// NewInstanceRouter wires the course-instance service's routes. The
// by-course bulk delete is the internal cascade target and stays admin-only.
func NewInstanceRouter(
	svc ports.InstanceService,
	codec *token.Codec,
	validator ports.TokenValidator,
	authz *middleware.Authorizer,
	db *mongo.Database,
	rdb *redis.Client,
	log zerolog.Logger,
) *echo.Echo {
	e := newEcho("instance_service", db, rdb, log)

	h := handler.NewInstanceHandler(svc)
	guard := middleware.Auth(codec, validator, authz, log)

	g := e.Group("/api/instances", guard)
	g.POST("", h.Create, middleware.RequireRoles("ADMIN"))
	g.GET("", h.GetAll)
	g.GET("/:year/:semester", h.GetByYearSemester)
	g.GET("/:year/:semester/:id", h.GetByID)
	g.DELETE("/courseId/:courseId", h.DeleteByCourse, middleware.RequireRoles("ADMIN"))

	return e
}
