package registry

import "errors"

var (
	// ErrInstanceNotFound indicates a request for an instance this registry does not serve.
	ErrInstanceNotFound = errors.New("instance not found")
	// ErrDeviceNotFound indicates an unknown device ID.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrInvalidPlatform indicates a platform other than web or safari.
	ErrInvalidPlatform = errors.New("invalid platform")
	// ErrTokenRequired indicates a registration without a push token.
	ErrTokenRequired = errors.New("push token is required")
	// ErrWebsitePushIDRequired indicates a safari registration without its website push ID.
	ErrWebsitePushIDRequired = errors.New("website push ID is required for safari devices")
	// ErrUnauthorized indicates a missing, malformed, expired or forged user token.
	ErrUnauthorized = errors.New("invalid user token")
	// ErrUserConflict indicates an attempt to rebind a device to another user.
	ErrUserConflict = errors.New("device already belongs to a different user")
	// ErrNoInterests indicates a publish without target interests.
	ErrNoInterests = errors.New("at least one interest is required")
	// ErrTooManyPublishInterests indicates a publish beyond MaxPublishInterests.
	ErrTooManyPublishInterests = errors.New("too many interests in publish request")
)
