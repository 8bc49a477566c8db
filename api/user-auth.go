package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/idrive-online-backup/swift-s3-gw/api/auth"
	"github.com/idrive-online-backup/swift-s3-gw/api/s3errors"
	"go.uber.org/zap"
)

// KeyWrapper is wrapper for context keys.
type KeyWrapper string

// AccountData is an ID used to store the authenticated auth.Account in a context.
var AccountData = KeyWrapper("__context_account_key")

// GetAccount returns the authenticated account stored in ctx, or nil for
// anonymous requests.
func GetAccount(ctx context.Context) *auth.Account {
	if acc, ok := ctx.Value(AccountData).(*auth.Account); ok {
		return acc
	}
	return nil
}

// AttachUserAuth adds user authentication via center to router using log for logging.
func AttachUserAuth(router *mux.Router, center auth.Center, log *zap.Logger) {
	router.Use(func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ctx context.Context
			acc, err := center.Authenticate(r)
			if err != nil {
				if err == auth.ErrNoAuthorizationHeader {
					log.Debug("request is anonymous", zap.String("path", r.URL.Path))
					ctx = r.Context()
				} else {
					log.Error("failed to pass authentication", zap.Error(err))
					if _, ok := err.(s3errors.Error); !ok {
						err = s3errors.GetAPIError(s3errors.ErrAccessDenied)
					}
					WriteErrorResponse(w, GetReqInfo(r.Context()), err)
					return
				}
			} else {
				ctx = context.WithValue(r.Context(), AccountData, acc)
			}

			h.ServeHTTP(w, r.WithContext(ctx))
		})
	})
}
