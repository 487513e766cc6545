package device

import (
	"context"

	"github.com/pushbeams/beams-device/internal/model"
)

// Store persists the single device record of one registry instance.
// Writes replace the whole record; callers read-modify-write.
type Store interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (model.DeviceRecord, error)
	Write(ctx context.Context, record model.DeviceRecord) error
	Clear(ctx context.Context) error
}
