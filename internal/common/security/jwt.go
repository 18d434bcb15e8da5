package security

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/7rockstarmade/LogicModule/internal/domain/model"
	"github.com/7rockstarmade/LogicModule/internal/platform/config"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	alg := config.AppConfig.JWTAlgorithm
	if alg == "" {
		alg = "HS256"
	}
	TokenAuth = jwtauth.New(alg, config.AppConfig.JWTKey, nil)
}

// GenerateToken signs the identity bundle of user. Token issuance belongs to
// the auth service in production; this is used by tests and local tooling.
func GenerateToken(user model.CurrentUser) (string, error) {
	claims := jwt.MapClaims{
		"sub":         user.ID,
		"username":    user.Username,
		"fullName":    user.FullName,
		"roles":       user.Roles,
		"permissions": user.Permissions,
		"blocked":     user.Blocked,
		"exp":         time.Now().Add(config.AppConfig.JWTExp).Unix(),
		"iat":         time.Now().Unix(),
	}
	if user.Email != "" {
		claims["email"] = user.Email
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// CurrentUserFromClaims turns verified token claims into the caller identity.
func CurrentUserFromClaims(claims map[string]interface{}) (*model.CurrentUser, error) {
	id, err := subjectFromClaims(claims)
	if err != nil {
		return nil, err
	}
	user := &model.CurrentUser{
		ID:       id,
		Username: stringClaim(claims, "username"),
		FullName: stringClaim(claims, "fullName"),
		Email:    stringClaim(claims, "email"),
	}
	if user.Roles, err = stringListClaim(claims, "roles"); err != nil {
		return nil, err
	}
	if user.Permissions, err = stringListClaim(claims, "permissions"); err != nil {
		return nil, err
	}
	if v, ok := claims["blocked"]; ok && v != nil {
		blocked, ok := v.(bool)
		if !ok {
			return nil, errors.New("blocked claim is not a boolean")
		}
		user.Blocked = blocked
	}
	return user, nil
}

// subjectFromClaims accepts "sub" as a string or a JSON number.
func subjectFromClaims(claims map[string]interface{}) (string, error) {
	switch v := claims["sub"].(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "", errors.New("sub claim is empty")
		}
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	case nil:
		return "", errors.New("sub claim is missing")
	default:
		return "", fmt.Errorf("sub claim has unsupported type %T", v)
	}
}

func stringClaim(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}

func stringListClaim(claims map[string]interface{}, key string) ([]string, error) {
	switch v := claims[key].(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s claim contains a non-string entry", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s claim is not a list", key)
	}
}
