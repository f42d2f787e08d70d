package auth

import (
	"context"
	"crypto/subtle"

	"user-management/internal/domain"
	"user-management/pkg/utils"
)

// Authenticator 校验登录凭据，返回写入 token 的主体名
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// StaticAuthenticator 单账号占位实现，只保存密码的 bcrypt 摘要
type StaticAuthenticator struct {
	username     string
	passwordHash string
}

// NewStaticAuthenticator passwordHash 为空时对明文 password 现场做 bcrypt
func NewStaticAuthenticator(username, password, passwordHash string) (*StaticAuthenticator, error) {
	if passwordHash == "" {
		h, err := utils.HashPassword(password)
		if err != nil {
			return nil, err
		}
		passwordHash = h
	}
	return &StaticAuthenticator{username: username, passwordHash: passwordHash}, nil
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := utils.CheckPassword(password, a.passwordHash)
	if !userOK || !passOK {
		return "", domain.ErrInvalidCredentials
	}
	return a.username, nil
}
