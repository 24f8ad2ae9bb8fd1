package services

import (
	"net/http"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/sharegate/shared"
	log "github.com/sirupsen/logrus"
)

const AUTH_SVC = "auth_svc"

type tokenVerifier interface {
	ExtractTokenFromHeader(authHeader string) (string, error)
	VerifyJWTToken(token string) (string, error)
}

// AuthService guards the admin API with the session JWT.
type AuthService struct {
	appContext.DefaultService

	jwtSvc tokenVerifier
	users  UserStore
}

func NewAuthService(jwtSvc tokenVerifier, users UserStore) *AuthService {
	return &AuthService{jwtSvc: jwtSvc, users: users}
}

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.users = svc.Service(POSTGRES_SVC).(*PostgresService).Users()
	return nil
}

func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", err.Error())
		}

		userID, err := svc.jwtSvc.VerifyJWTToken(token)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", "Invalid JWT token")
		}

		c.Locals(shared.UserID, userID)
		return c.Next()
	}
}

// RequireAdmin must run after RequiredAuth.
func (svc *AuthService) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(shared.UserID).(string)
		if userID == "" {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", nil)
		}

		user, err := svc.users.GetUser(userID)
		if err != nil || !user.IsActive || !user.IsAdmin {
			log.WithField("user_id", userID).Warn("Admin route refused")
			return shared.ResponseJSON(c, http.StatusForbidden, "Forbidden", nil)
		}

		return c.Next()
	}
}
