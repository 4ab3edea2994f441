package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
)

// DeviceCookie holds the signed device token.
const DeviceCookie = "device"

// contextKey is unexported so no other package can read or shadow the
// values this package puts in a request context.
type contextKey string

const deviceIDKey contextKey = "deviceID"

// Device makes sure every request belongs to a device.
//
// A valid device cookie is trusted as is. A missing, expired or tampered one
// is replaced by a fresh device id, so the browser starts with empty state
// exactly as a browser with cleared local storage would. The id is stored
// in the request context for DeviceIDFromContext.
//
// The cookie is HttpOnly: scripts on the page never see it.
func Device(tokens *TokenService, secure bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID, err := extractDeviceID(r, tokens)
			if err != nil {
				deviceID = xid.New().String()
				token, err := tokens.Generate(KindDevice, deviceID)
				if err != nil {
					logger.Error("issuing device token", slog.String("error", err.Error()))
					http.Error(w, `{"error":"Internal Server Error","message":"an unexpected error occurred"}`, http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookie,
					Value:    token,
					Path:     "/",
					MaxAge:   int(DeviceTokenTTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithDeviceID(r.Context(), deviceID)))
		})
	}
}

// WithDeviceID returns a context carrying deviceID. Handler tests use it to
// skip the cookie round trip.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDKey, deviceID)
}

// DeviceIDFromContext returns the device the request belongs to.
// It returns ("", false) outside the Device middleware.
func DeviceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(deviceIDKey).(string)
	return id, ok && id != ""
}

func extractDeviceID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(DeviceCookie)
	if err != nil {
		return "", err
	}
	return tokens.Validate(KindDevice, cookie.Value)
}
