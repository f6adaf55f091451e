package webclient_test

import (
	"testing"

	"github.com/raysh454/a11yscan/internal/webclient"
)

func TestDevicePreset_CaseInsensitive(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"Desktop", "desktop", " iPhone X ", "PIXEL 2", "ipad", "Galaxy S5"} {
		p, ok := webclient.DevicePreset(name)
		if !ok {
			t.Errorf("expected preset for %q", name)
			continue
		}
		if p.Width == 0 || p.Height == 0 {
			t.Errorf("preset %q has empty viewport", name)
		}
	}
	if _, ok := webclient.DevicePreset("Nokia 3310"); ok {
		t.Error("unexpected preset for unknown device")
	}
}

func TestDevicePresets_SortedAndMobileFlags(t *testing.T) {
	t.Parallel()
	presets := webclient.DevicePresets()
	if len(presets) != 5 {
		t.Fatalf("expected 5 presets, got %d", len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1].Name > presets[i].Name {
			t.Errorf("presets not sorted: %q before %q", presets[i-1].Name, presets[i].Name)
		}
	}
	for _, p := range presets {
		if p.Name == webclient.DesktopDeviceName && p.Mobile {
			t.Error("desktop preset must not be mobile")
		}
		if p.Name == "iPhone X" && !p.Mobile {
			t.Error("iPhone X preset must be mobile")
		}
	}
}
