// internal/app/bootstrap/hooks.go
package bootstrap

import "github.com/dalemusser/waffle/app"

// Hooks is the brintelli lifecycle: config, Mongo and Redis connections,
// indexes and validators, services and jobs, the API router, then teardown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "brintelli",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,
	EnsureSchema:   EnsureSchema,
	Startup:        Startup,
	BuildHandler:   BuildHandler,
	Shutdown:       Shutdown,
}
