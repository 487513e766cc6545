package device

import "errors"

var (
	// ErrInstanceIDRequired indicates an empty registry instance identifier.
	ErrInstanceIDRequired = errors.New("instance ID is required")
	// ErrUnsupportedPlatform indicates no push capability was supplied.
	ErrUnsupportedPlatform = errors.New("push notifications are not supported on this platform")
	// ErrServiceWorkerScope indicates the page is outside the service worker registration scope.
	ErrServiceWorkerScope = errors.New("current page not in service worker registration scope")
	// ErrWebsitePushIDRequired indicates the platform-push variant is missing its website push ID.
	ErrWebsitePushIDRequired = errors.New("website push ID is required")

	// ErrNotStarted indicates an operation that needs a registered device.
	ErrNotStarted = errors.New("SDK not registered with Beams, did you call start?")
	// ErrUserIDChange indicates an attempt to rebind a device to a different user.
	ErrUserIDChange = errors.New("changing the user ID is not allowed")
	// ErrUserIDEmpty indicates an empty user ID.
	ErrUserIDEmpty = errors.New("user ID cannot be the empty string")
	// ErrTokenIssuerRequired indicates SetUserID was called without a token issuer.
	ErrTokenIssuerRequired = errors.New("token provider is required")
	// ErrPermissionNotGranted indicates the platform refused notification permission.
	ErrPermissionNotGranted = errors.New("notification permission not granted")

	// ErrStoreRequired indicates a client configured without a device store.
	ErrStoreRequired = errors.New("device state store is required")
	// ErrStoreNotConnected indicates store use before Connect.
	ErrStoreNotConnected = errors.New("device state store not connected")
)
