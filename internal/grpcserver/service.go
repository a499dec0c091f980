package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"mediatracker/pkg/models"
)

const serviceName = "mediatracker.v1.SearchService"

type SearchRequest struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
}

type SearchResponse struct {
	Results []models.Candidate `json:"results"`
}

type BestResponse struct {
	Result *models.Candidate `json:"result"`
}

type DetailsRequest struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Source string `json:"source,omitempty"`
}

type DetailsResponse struct {
	Record map[string]any `json:"record"`
}

// SearchServer is the service implemented by Server.
type SearchServer interface {
	Search(context.Context, *SearchRequest) (*SearchResponse, error)
	Best(context.Context, *SearchRequest) (*BestResponse, error)
	Details(context.Context, *DetailsRequest) (*DetailsResponse, error)
}

// ServiceDesc describes SearchService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SearchServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Search", Handler: unary("Search", func(s SearchServer, ctx context.Context, in *SearchRequest) (any, error) { return s.Search(ctx, in) })},
		{MethodName: "Best", Handler: unary("Best", func(s SearchServer, ctx context.Context, in *SearchRequest) (any, error) { return s.Best(ctx, in) })},
		{MethodName: "Details", Handler: unary("Details", func(s SearchServer, ctx context.Context, in *DetailsRequest) (any, error) { return s.Details(ctx, in) })},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mediatracker/search",
}

func RegisterSearchServer(s grpc.ServiceRegistrar, srv SearchServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary adapts a typed method to grpc.MethodDesc's handler signature.
func unary[Req any](method string, call func(SearchServer, context.Context, *Req) (any, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + serviceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SearchServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(SearchServer), ctx, req.(*Req))
		})
	}
}

// Client calls SearchService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...)
}

func (c *Client) Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	out := new(SearchResponse)
	if err := c.invoke(ctx, "Search", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Best(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*BestResponse, error) {
	out := new(BestResponse)
	if err := c.invoke(ctx, "Best", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Details(ctx context.Context, in *DetailsRequest, opts ...grpc.CallOption) (*DetailsResponse, error) {
	out := new(DetailsResponse)
	if err := c.invoke(ctx, "Details", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
