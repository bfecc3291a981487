package out

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	pluginrpc "devlaunch/internal/modules/plugin/adapter/out/rpc"
	"devlaunch/internal/modules/plugin/domain"
	pluginout "devlaunch/internal/modules/plugin/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

type GRPCHost struct {
	logger hclog.Logger
}

// NewGRPCHost returns a host that starts each plugin for the duration of a
// single call. Plugin stderr and go-plugin diagnostics go to logger.
func NewGRPCHost(logger hclog.Logger) pluginout.Host {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GRPCHost{logger: logger.Named("plugin")}
}

func (h *GRPCHost) CheckLifecycle(ctx context.Context, manifest domain.Manifest) error {
	client, closeFn, err := h.connect(ctx, manifest, defaultStartTimeout)
	if err != nil {
		return err
	}
	defer closeFn()

	callCtx, cancel := h.callContext(ctx, defaultCallTimeout)
	defer cancel()
	if _, err := client.GetMetadata(callCtx); err != nil {
		return fmt.Errorf("get metadata: %w", err)
	}
	return nil
}

func (h *GRPCHost) GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	client, closeFn, err := h.connect(ctx, manifest, defaultStartTimeout)
	if err != nil {
		return domain.Metadata{}, err
	}
	defer closeFn()

	callCtx, cancel := h.callContext(ctx, defaultCallTimeout)
	defer cancel()

	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("get metadata: %w", err)
	}
	capabilities := make([]domain.Capability, 0, len(meta.Capabilities))
	for _, capability := range meta.Capabilities {
		capabilities = append(capabilities, domain.Capability(capability))
	}
	return domain.Metadata{Name: meta.Name, Version: meta.Version, Capabilities: capabilities}, nil
}

func (h *GRPCHost) ListActions(ctx context.Context, manifest domain.Manifest) ([]domain.ActionDescriptor, error) {
	client, closeFn, err := h.connect(ctx, manifest, defaultStartTimeout)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	callCtx, cancel := h.callContext(ctx, defaultCallTimeout)
	defer cancel()

	response, err := client.ListActions(callCtx)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s", domain.ErrPluginTimeout, manifest.Name)
		}
		return nil, fmt.Errorf("list actions: %w", err)
	}
	out := make([]domain.ActionDescriptor, 0, len(response.Actions))
	for _, a := range response.Actions {
		descriptor := domain.ActionDescriptor{
			ID:          a.ID,
			Title:       a.Title,
			Category:    a.Category,
			Description: a.Description,
			Argv:        a.Argv,
			Dir:         a.Dir,
			Env:         a.Env,
			Requires:    a.Requires,
			Background:  a.Background,
			Destructive: a.Destructive,
		}
		if a.Parameter != nil {
			descriptor.Parameter = &domain.ParameterDescriptor{
				Label:              a.Parameter.Label,
				Choices:            a.Parameter.Choices,
				Default:            a.Parameter.Default,
				DestructiveChoices: a.Parameter.DestructiveChoices,
			}
		}
		out = append(out, descriptor)
	}
	return out, nil
}

func (h *GRPCHost) connect(_ context.Context, manifest domain.Manifest, startTimeout time.Duration) (pluginrpc.ActionProviderClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  pluginrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          pluginrpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     startTimeout,
		Logger:           h.logger.With("plugin", manifest.Name),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start plugin client: %w", err)
	}
	raw, err := rpcClient.Dispense(pluginrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense plugin: %w", err)
	}
	typed, ok := raw.(pluginrpc.ActionProviderClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("plugin rpc client type mismatch")
	}
	return typed, closeFn, nil
}

func (h *GRPCHost) callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
