package echo

import (
	"crypto/subtle"
	"net/http"

	e "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const AdminTokenHeader = "X-Admin-Token"

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler, accountHandler *AccountHandler, adminToken string) {
	server.POST("/api/v1/imports/accounts/preview", importHandler.PreviewAccounts)
	server.POST("/api/v1/imports/accounts", importHandler.ImportAccounts)
	server.GET("/api/v1/imports/accounts/:id", importHandler.GetUploadStatus)

	adminOnly := adminAuth(adminToken)
	server.GET("/api/v1/accounts", accountHandler.ListAccounts)
	server.DELETE("/api/v1/accounts", accountHandler.DeleteAllAccounts, adminOnly)
	server.DELETE("/api/v1/accounts/:key", accountHandler.DeleteAccount, adminOnly)
}

// adminAuth guards destructive routes. An empty token rejects every request.
func adminAuth(adminToken string) e.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + AdminTokenHeader,
		Validator: func(key string, c e.Context) (bool, error) {
			if adminToken == "" {
				return false, nil
			}
			return subtle.ConstantTimeCompare([]byte(key), []byte(adminToken)) == 1, nil
		},
		ErrorHandler: func(err error, c e.Context) error {
			return errorJSON(c, http.StatusUnauthorized, "unauthorized", "a valid "+AdminTokenHeader+" header is required")
		},
	})
}
