package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/store"
	"github.com/raysh454/a11yscan/internal/webclient"
)

// DeviceResolver maps a device name to the profile to emulate. Custom
// profiles in the store shadow the built-in presets.
type DeviceResolver struct {
	devices store.DeviceStore
}

func NewDeviceResolver(devices store.DeviceStore) *DeviceResolver {
	return &DeviceResolver{devices: devices}
}

// Resolve returns the profile called name. An empty name is the desktop
// preset; an unknown one is a validation error.
func (r *DeviceResolver) Resolve(ctx context.Context, name string) (model.DeviceProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = webclient.DesktopDeviceName
	}
	if r != nil && r.devices != nil {
		d, err := r.devices.GetDevice(ctx, name)
		if err == nil {
			return *d, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.DeviceProfile{}, err
		}
	}
	if p, ok := webclient.DevicePreset(name); ok {
		return p, nil
	}
	return model.DeviceProfile{}, fmt.Errorf("%w: unknown device %q", model.ErrValidation, name)
}

// List returns the presets followed by the custom profiles.
func (r *DeviceResolver) List(ctx context.Context) ([]model.DeviceProfile, error) {
	out := webclient.DevicePresets()
	if r == nil || r.devices == nil {
		return out, nil
	}
	custom, err := r.devices.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	return append(out, custom...), nil
}
