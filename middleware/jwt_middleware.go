package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/setarena/setarena-backend/models"
	"github.com/setarena/setarena-backend/responses"
	"github.com/setarena/setarena-backend/utils"
)

type contextKey string

// AuthInfoKey carries the validated claims through the request context.
const AuthInfoKey contextKey = "authInfo"

// JWTValidation returns middleware that requires a valid bearer token and
// stores its claims in the request context.
func JWTValidation(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := r.Header.Get("Authorization")
			tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")

			keyFunc := func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrInvalidKey
				}
				return []byte(secret), nil
			}

			token, err := jwt.ParseWithClaims(tokenStr, &models.CustomClaims{}, keyFunc)
			if err != nil || !token.Valid {
				utils.HandleError(w, responses.UnauthorizedError{Msg: "Your token is invalid or expired. Please log in again."})
				return
			}

			authInfo, ok := token.Claims.(*models.CustomClaims)
			if !ok {
				utils.HandleError(w, responses.InternalServerError{Msg: "Error processing request."})
				return
			}

			ctx := context.WithValue(r.Context(), AuthInfoKey, authInfo)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
