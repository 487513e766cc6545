package model

// Platform names the registrar device namespace a client registers under.
type Platform string

const (
	PlatformWeb    Platform = "web"
	PlatformSafari Platform = "safari"
)

// DeviceRecord is the persisted identity for one registry instance.
// A nil pointer field is stored as NULL.
type DeviceRecord struct {
	InstanceID         string
	DeviceID           *string
	Token              *string
	UserID             *string
	LastSeenSDKVersion *string
	LastSeenUserAgent  *string
}

// EmptyDeviceRecord returns the all-null record for instanceID.
func EmptyDeviceRecord(instanceID string) DeviceRecord {
	return DeviceRecord{InstanceID: instanceID}
}

// Registered reports whether the record carries a registrar device ID.
func (r DeviceRecord) Registered() bool {
	return r.DeviceID != nil
}

// Identity is the in-memory view of a device returned to callers.
type Identity struct {
	InstanceID string `json:"instance_id"`
	DeviceID   string `json:"device_id,omitempty"`
	Token      string `json:"token,omitempty"`
	UserID     string `json:"user_id,omitempty"`
}

// Registered reports whether the identity has a device ID.
func (i Identity) Registered() bool {
	return i.DeviceID != ""
}

// StringPtr returns nil for the empty string.
func StringPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// StringValue dereferences v, returning "" for nil.
func StringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// SameString compares two nullable strings.
func SameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
