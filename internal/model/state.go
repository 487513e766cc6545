package model

import (
	"fmt"
	"strings"
)

// Permission is the platform's notification permission.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// ParsePermission accepts granted, denied, default and prompt.
func ParsePermission(raw string) (Permission, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "granted":
		return PermissionGranted, nil
	case "denied":
		return PermissionDenied, nil
	case "", "default", "prompt":
		return PermissionDefault, nil
	default:
		return "", fmt.Errorf("unknown permission %q", raw)
	}
}

// RegistrationState combines platform permission with registrar registration.
type RegistrationState string

const (
	RegistrationStatePermissionPromptRequired RegistrationState = "PERMISSION_PROMPT_REQUIRED"
	RegistrationStateGrantedNotRegistered     RegistrationState = "PERMISSION_GRANTED_NOT_REGISTERED_WITH_BEAMS"
	RegistrationStateGrantedRegistered        RegistrationState = "PERMISSION_GRANTED_REGISTERED_WITH_BEAMS"
	RegistrationStatePermissionDenied         RegistrationState = "PERMISSION_DENIED"
)

// DeriveRegistrationState maps (permission, registered) to a RegistrationState.
// Denied wins over everything; anything other than granted or denied needs a prompt.
func DeriveRegistrationState(permission Permission, registered bool) RegistrationState {
	switch permission {
	case PermissionDenied:
		return RegistrationStatePermissionDenied
	case PermissionGranted:
		if registered {
			return RegistrationStateGrantedRegistered
		}
		return RegistrationStateGrantedNotRegistered
	default:
		return RegistrationStatePermissionPromptRequired
	}
}
