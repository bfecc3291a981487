package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey      = "devlaunch"
	serviceName       = "devlaunch.plugin.v1.ActionProvider"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodListActions = "/" + serviceName + "/ListActions"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "DEVLAUNCH_PLUGIN",
	MagicCookieValue: "devlaunch",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

type ParameterDescriptor struct {
	Label              string   `json:"label"`
	Choices            []string `json:"choices"`
	Default            string   `json:"default,omitempty"`
	DestructiveChoices []string `json:"destructive_choices,omitempty"`
}

type ActionDescriptor struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Category    string               `json:"category,omitempty"`
	Description string               `json:"description,omitempty"`
	Argv        []string             `json:"argv"`
	Dir         string               `json:"dir,omitempty"`
	Env         map[string]string    `json:"env,omitempty"`
	Requires    []string             `json:"requires,omitempty"`
	Background  bool                 `json:"background,omitempty"`
	Destructive bool                 `json:"destructive,omitempty"`
	Parameter   *ParameterDescriptor `json:"parameter,omitempty"`
}

type ListActionsResponse struct {
	Actions []ActionDescriptor `json:"actions"`
}

type ActionProviderServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	ListActions(ctx context.Context, in *Empty) (*ListActionsResponse, error)
}

type ActionProviderClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	ListActions(ctx context.Context) (*ListActionsResponse, error)
}

type actionProviderClient struct {
	conn *grpc.ClientConn
}

func NewActionProviderClient(conn *grpc.ClientConn) ActionProviderClient {
	return &actionProviderClient{conn: conn}
}

func (c *actionProviderClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *actionProviderClient) ListActions(ctx context.Context) (*ListActionsResponse, error) {
	out := &ListActionsResponse{}
	if err := c.conn.Invoke(ctx, methodListActions, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func emptyHandler[T any](fullMethod string, call func(context.Context, *Empty) (T, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := &Empty{}
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			empty, ok := req.(*Empty)
			if !ok {
				return nil, fmt.Errorf("invalid request type")
			}
			return call(ctx, empty)
		}
		return interceptor(ctx, in, info, handler)
	}
}

func RegisterActionProviderServer(server grpc.ServiceRegistrar, impl ActionProviderServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*ActionProviderServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "GetMetadata", Handler: emptyHandler(methodGetMetadata, impl.GetMetadata)},
			{MethodName: "ListActions", Handler: emptyHandler(methodListActions, impl.ListActions)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "devlaunch/plugin/v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl ActionProviderServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterActionProviderServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewActionProviderClient(conn), nil
}

func PluginMap(impl ActionProviderServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
