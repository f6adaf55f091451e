package server

import (
	"github.com/raysh454/a11yscan/internal/app"
	"github.com/raysh454/a11yscan/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address. Empty falls back to
	// AppConfig.ListenAddr.
	ListenAddr string

	AppConfig *app.Config
	Logger    logging.Logger

	// Components overrides parts of the application wiring (tests).
	Components app.Components
}
