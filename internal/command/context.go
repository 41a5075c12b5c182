package command

import (
	"github.com/adamavenir/parley/internal/backend"
	"github.com/adamavenir/parley/internal/core"
)

// CommandContext carries the resolved config and backend client for one
// command invocation.
type CommandContext struct {
	Config *core.Config
	Client *backend.Client
}

// GetContext loads the config, validates it, and opens a backend client.
func GetContext() (*CommandContext, error) {
	config, err := core.ReadConfig()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := backend.NewClient(config.BackendURL, config.Token)
	if err != nil {
		return nil, err
	}
	return &CommandContext{Config: config, Client: client}, nil
}
