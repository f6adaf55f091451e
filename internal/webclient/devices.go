package webclient

import (
	"sort"
	"strings"

	"github.com/chromedp/chromedp/device"

	"github.com/raysh454/a11yscan/internal/model"
)

// DesktopDeviceName is used when a scan does not name a device.
const DesktopDeviceName = "Desktop"

var desktop = model.DeviceProfile{
	Name:   DesktopDeviceName,
	Width:  1920,
	Height: 1080,
	Scale:  1,
}

func fromInfo(name string, info device.Info) model.DeviceProfile {
	return model.DeviceProfile{
		Name:      name,
		Width:     info.Width,
		Height:    info.Height,
		Scale:     info.Scale,
		Landscape: info.Landscape,
		Mobile:    info.Mobile,
		Touch:     info.Touch,
		UserAgent: info.UserAgent,
	}
}

var presets = map[string]model.DeviceProfile{
	strings.ToLower(DesktopDeviceName): desktop,
	"iphone x":                         fromInfo("iPhone X", device.IPhoneX.Device()),
	"ipad":                             fromInfo("iPad", device.IPad.Device()),
	"pixel 2":                          fromInfo("Pixel 2", device.Pixel2.Device()),
	"galaxy s5":                        fromInfo("Galaxy S5", device.GalaxyS5.Device()),
}

// DevicePreset looks up a built-in profile by case-insensitive name.
func DevicePreset(name string) (model.DeviceProfile, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// DevicePresets lists the built-in profiles sorted by name.
func DevicePresets() []model.DeviceProfile {
	out := make([]model.DeviceProfile, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
