package device

import (
	"context"
	"fmt"

	devicedomain "github.com/pushbeams/beams-device/internal/domain/device"
	"github.com/pushbeams/beams-device/internal/interests"
	"github.com/pushbeams/beams-device/internal/model"
)

// AddDeviceInterest subscribes the device to interest.
func (c *Client) AddDeviceInterest(ctx context.Context, interest string) error {
	return c.withDevice(ctx, "add device interest", func(ctx context.Context, deviceID string) error {
		if err := interests.ValidateName(interest); err != nil {
			return err
		}
		return c.registrar.AddInterest(ctx, c.platform.name(), deviceID, interest)
	})
}

// RemoveDeviceInterest unsubscribes the device from interest.
func (c *Client) RemoveDeviceInterest(ctx context.Context, interest string) error {
	return c.withDevice(ctx, "remove device interest", func(ctx context.Context, deviceID string) error {
		if err := interests.ValidateName(interest); err != nil {
			return err
		}
		return c.registrar.RemoveInterest(ctx, c.platform.name(), deviceID, interest)
	})
}

// GetDeviceInterests lists the device's interests. The result is never nil.
func (c *Client) GetDeviceInterests(ctx context.Context) ([]string, error) {
	var out []string
	err := c.withDevice(ctx, "get device interests", func(ctx context.Context, deviceID string) error {
		list, err := c.registrar.Interests(ctx, c.platform.name(), deviceID)
		if err != nil {
			return err
		}
		out = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// SetDeviceInterests replaces the device's interests with the unique
// members of list.
func (c *Client) SetDeviceInterests(ctx context.Context, list []string) error {
	return c.withDevice(ctx, "set device interests", func(ctx context.Context, deviceID string) error {
		unique, err := interests.Normalize(list)
		if err != nil {
			return err
		}
		return c.registrar.SetInterests(ctx, c.platform.name(), deviceID, unique)
	})
}

// ClearDeviceInterests removes every interest from the device.
func (c *Client) ClearDeviceInterests(ctx context.Context) error {
	return c.withDevice(ctx, "clear device interests", func(ctx context.Context, deviceID string) error {
		return c.registrar.SetInterests(ctx, c.platform.name(), deviceID, []string{})
	})
}

// withDevice runs fn for a registered device while holding the operation lock.
func (c *Client) withDevice(ctx context.Context, op string, fn func(ctx context.Context, deviceID string) error) error {
	if err := c.enter(ctx); err != nil {
		return err
	}
	defer c.mu.Unlock()

	if !c.record.Registered() {
		return fmt.Errorf("could not %s: %w", op, devicedomain.ErrNotStarted)
	}
	if err := fn(context.WithoutCancel(ctx), model.StringValue(c.record.DeviceID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
