package main

import (
	"context"

	pluginrpc "devlaunch/internal/modules/plugin/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

type server struct{}

func (s *server) GetMetadata(_ context.Context, _ *pluginrpc.Empty) (*pluginrpc.Metadata, error) {
	return &pluginrpc.Metadata{
		Name:         "reference",
		Version:      "1.0.0",
		Capabilities: []string{"actions"},
	}, nil
}

func (s *server) ListActions(_ context.Context, _ *pluginrpc.Empty) (*pluginrpc.ListActionsResponse, error) {
	return &pluginrpc.ListActionsResponse{Actions: []pluginrpc.ActionDescriptor{
		{
			ID:          "git-status",
			Title:       "Git Status",
			Category:    "git",
			Description: "Short status of the working tree",
			Argv:        []string{"git", "status", "--short"},
			Requires:    []string{"git"},
		},
		{
			ID:          "git-clean",
			Title:       "Git Clean",
			Category:    "git",
			Description: "Remove untracked files",
			Argv:        []string{"git", "clean", "{param}"},
			Requires:    []string{"git"},
			Destructive: true,
			Parameter: &pluginrpc.ParameterDescriptor{
				Label:              "Mode",
				Choices:            []string{"-n", "-fd"},
				Default:            "-n",
				DestructiveChoices: []string{"-fd"},
			},
		},
		{
			ID:          "serve-docs",
			Title:       "Serve Docs",
			Category:    "docs",
			Description: "Serve the docs directory over HTTP",
			Argv:        []string{"python3", "-m", "http.server", "8000"},
			Dir:         "docs",
			Requires:    []string{"python3|python"},
			Background:  true,
		},
	}}, nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: pluginrpc.HandshakeConfig,
		Plugins:         pluginrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
