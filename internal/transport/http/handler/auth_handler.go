package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-management/internal/core/auth"
	"user-management/internal/domain"
	"user-management/internal/transport/http/ez"
	resp "user-management/internal/transport/http/response"
)

// credential 兼容 "123" 与 123 两种写法
type credential string

func (s *credential) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = credential(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("password must be a string or number")
	}
	*s = credential(n.String())
	return nil
}

type loginIn struct {
	Username string     `json:"username"`
	Password credential `json:"password"`
}

type loginOut struct {
	Token string `json:"token"`
}

type AuthHandler struct {
	authn  auth.Authenticator
	jwter  *auth.JWTer
	guards []gin.HandlerFunc
}

// NewAuthHandler guards 只挂在 /login 上，如按 IP 限流
func NewAuthHandler(a auth.Authenticator, j *auth.JWTer, guards ...gin.HandlerFunc) *AuthHandler {
	return &AuthHandler{authn: a, jwter: j, guards: guards}
}

func (h *AuthHandler) Priority() int { return 0 }

func (h *AuthHandler) MountAPI(g *gin.RouterGroup) {
	ez.RegisterAction(ez.New(g.Group("", h.guards...)), ez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		MapErr: func(err error) *ez.AErr {
			if errors.Is(err, domain.ErrInvalidCredentials) {
				return &ez.AErr{Status: http.StatusUnauthorized, Key: ez.KeyError, Msg: resp.MsgInvalidCredentials}
			}
			return nil
		},
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			sub, err := h.authn.Authenticate(c.Request.Context(), in.Username, string(in.Password))
			if err != nil {
				return loginOut{}, err
			}
			tok, err := h.jwter.Issue(sub)
			if err != nil {
				return loginOut{}, ez.Internal("issue token failed", err)
			}
			return loginOut{Token: tok}, nil
		},
	})
}
