package server

import (
	"github.com/raysh454/sitelens/internal/app"
	"github.com/raysh454/sitelens/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address; empty uses AppConfig.Server.Addr.
	ListenAddr string

	AppConfig *app.Config

	// App is used as-is when set; otherwise NewServer builds one from
	// AppConfig and owns it.
	App *app.Application

	Logger logging.Logger
}
