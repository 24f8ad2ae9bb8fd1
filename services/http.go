package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/lac-hong-legacy/sharegate/docs"
	"github.com/lac-hong-legacy/sharegate/services/handlers"
	"github.com/lac-hong-legacy/sharegate/shared"
	log "github.com/sirupsen/logrus"
)

const (
	HTTP_SVC = "http_svc"

	defaultHTTPPort = 8000
)

type HttpService struct {
	context.DefaultService

	port         int
	allowOrigins string
	app          *fiber.App
}

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	svc.port = envInt("HTTP_PORT", defaultHTTPPort)
	svc.allowOrigins = envString("CORS_ALLOW_ORIGINS", "*")
	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	gw := svc.Service(GATEWAY_SVC).(*GatewayService)
	pg := svc.Service(POSTGRES_SVC).(*PostgresService)

	gatewayAPI := NewGatewayAPI(gw, svc.Service(DOWNLOAD_SVC).(*DownloadService), svc.Service(JWT_SVC).(*JWTService))
	adminAPI := NewAdminAPI(
		gw,
		svc.Service(THREAT_LEDGER_SVC).(*ThreatLedgerService),
		svc.Service(ABUSE_SVC).(*AbuseService),
		pg.Downloads(),
		pg.SecurityEvents(),
	)

	svc.app = NewRouter(Routes{
		Auth:    handlers.NewAuthHandler(gatewayAPI),
		Files:   handlers.NewFileHandler(gatewayAPI),
		Admin:   handlers.NewAdminHandler(adminAPI),
		Limiter: svc.Service(RATE_LIMIT_SVC).(*RateLimitService),
		Guard:   svc.Service(AUTH_SVC).(*AuthService),

		AllowOrigins: svc.allowOrigins,
	})

	log.WithField("port", svc.port).Info("HTTP server listening")
	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.ShutdownWithTimeout(10 * time.Second)
	}
}

// Routes groups what NewRouter mounts.
type Routes struct {
	Auth    *handlers.AuthHandler
	Files   *handlers.FileHandler
	Admin   *handlers.AdminHandler
	Limiter handlers.RateLimiterInterface
	Guard   handlers.AuthServiceInterface

	// AllowOrigins defaults to "*".
	AllowOrigins string
}

func NewRouter(r Routes) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		BodyLimit:             64 * 1024,
	})
	app.Use(recover.New())
	app.Use(MonitoringMiddleware())

	origins := r.AllowOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Device-ID",
		ExposeHeaders: "Retry-After, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset",
	}))

	app.Get("/ping", ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	v1 := app.Group("/api/v1", ActiveRequestsMiddleware("api"))
	v1.Get("/ping", ping)

	auth := v1.Group("/auth")
	auth.Post("/probe", r.Limiter.RateLimit(RateLimitProbe), r.Auth.Probe)
	auth.Post("/login", r.Limiter.RateLimit(RateLimitLogin), r.Auth.Login)
	auth.Post("/session", r.Limiter.RateLimit(RateLimitLogin), r.Auth.Session)

	files := v1.Group("/files/:code")
	files.Post("/probe", r.Limiter.RateLimit(RateLimitProbe), r.Files.Probe)
	files.Post("/verify-password", r.Limiter.RateLimit(RateLimitPasswordAttempt), r.Files.VerifyPassword)
	files.Post("/initiate-download", r.Limiter.RateLimit(RateLimitProbe), r.Files.InitiateDownload)
	files.Get("/download", r.Limiter.RateLimit(RateLimitDownload), r.Files.Download)

	admin := v1.Group("/admin", r.Guard.RequiredAuth(), r.Guard.RequireAdmin())
	admin.Get("/abuse/users/:userId", r.Admin.AbuseUser)
	admin.Get("/abuse/ips/:ip", r.Admin.AbuseIP)
	admin.Post("/abuse/scan", r.Admin.AbuseScan)
	admin.Get("/ledger", r.Admin.LedgerGet)
	admin.Delete("/ledger", r.Admin.LedgerDelete)
	admin.Get("/files/:code/downloads", r.Admin.FileDownloads)
	admin.Get("/security-events", r.Admin.SecurityEvents)

	app.Use(func(c *fiber.Ctx) error {
		return shared.NewNotFoundError("page not found")
	})

	return app
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")
	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}

func errorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		if appErr.StatusCode >= http.StatusInternalServerError {
			log.WithError(err).WithField("path", c.Path()).Error("Request failed")
		}
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.WithError(err).WithField("path", c.Path()).Error("Unhandled error")
	return shared.ResponseInternalError(c)
}
