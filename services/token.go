package services

import (
	"fmt"
	"time"

	"main/utils"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "student-portal-gateway"

// SessionClaims is the identity carried by a gateway session token.
type SessionClaims struct {
	Username  string
	Name      string
	StudentID string
	Email     string
	Roles     []string
}

// GenerateSessionToken issues the gateway's own HS256 token after the
// upstream confirms a login. It identifies the user to the activity
// tracker; it grants nothing upstream.
func GenerateSessionToken(claims *SessionClaims) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username":   claims.Username,
		"name":       claims.Name,
		"student_id": claims.StudentID,
		"email":      claims.Email,
		"roles":      claims.Roles,
		"iss":        tokenIssuer,
		"iat":        now.Unix(),
		"exp":        now.Add(time.Duration(utils.JWTExpirationTime) * time.Second).Unix(),
	})

	signed, err := token.SignedString([]byte(utils.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken validates a gateway session token and returns its
// claims. Tokens issued by anyone else (including the upstream API) fail
// here, which callers treat as "no session".
func ParseSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(utils.JWTSecretKey), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}

	username, _ := mapClaims["username"].(string)
	if username == "" {
		return nil, fmt.Errorf("session token missing username")
	}

	claims := &SessionClaims{Username: username}
	claims.Name, _ = mapClaims["name"].(string)
	claims.StudentID, _ = mapClaims["student_id"].(string)
	claims.Email, _ = mapClaims["email"].(string)
	if raw, ok := mapClaims["roles"].([]interface{}); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				claims.Roles = append(claims.Roles, s)
			}
		}
	}

	return claims, nil
}
