package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/auth"
)

const contextTokenKey = "sessionToken"

var nowFunc = time.Now

// Claims represents the session transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

func (c Claims) Session() auth.Session {
	return auth.Session{Role: c.Role, Mobile: c.Subject, Name: c.Name}
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func NewClaims(sess auth.Session, conf *core.Config) *Claims {
	now := nowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   sess.Mobile,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Role: sess.Role,
		Name: sess.Name,
	}
}

// GenerateToken generates a signed JWT token string representing the session.
func GenerateToken(sess auth.Session, conf *core.Config) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), NewClaims(sess, conf))
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextSession(ctx echo.Context) (auth.Session, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return auth.Session{}, err
	}
	return claims.Session(), nil
}

type authApi struct {
	svc  *auth.Service
	conf *core.Config
}

func registerAuthAPI(g *echo.Group, svc *auth.Service, conf *core.Config) {
	api := authApi{svc: svc, conf: conf}
	g.POST("/auth/login", api.login)
}

func (api *authApi) login(ctx echo.Context) error {
	var creds auth.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	sess, err := api.svc.Login(ctx.Request().Context(), creds)
	if err != nil {
		return err
	}
	token, err := GenerateToken(sess, api.conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": token})
}
