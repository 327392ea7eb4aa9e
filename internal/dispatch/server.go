package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hanpama/boost/internal/eventbus"
	"github.com/hanpama/boost/internal/events"
	"github.com/hanpama/boost/internal/grpctp"
	"github.com/hanpama/boost/internal/log"
	"github.com/hanpama/boost/internal/protoreg"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Decoder turns a GraphQL shaped input into the command value handlers
// expect.
type Decoder interface {
	Decode(command string, input map[string]any) (any, error)
}

// Server exposes a Dispatcher as the CommandService.
type Server struct {
	reg     *protoreg.Registry
	decoder Decoder
	target  Dispatcher
}

func NewServer(reg *protoreg.Registry, decoder Decoder, target Dispatcher) *Server {
	return &Server{reg: reg, decoder: decoder, target: target}
}

// ServiceDesc describes the CommandService with one dynamic handler per
// command.
func (s *Server) ServiceDesc() *grpc.ServiceDesc {
	svc := s.reg.Service()
	desc := &grpc.ServiceDesc{
		ServiceName: string(svc.FullName()),
		HandlerType: (*any)(nil),
		Metadata:    s.reg.File().Path(),
	}
	for _, name := range s.reg.Commands() {
		md, _ := s.reg.Method(name)
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: string(md.Name()),
			Handler:    s.methodHandler(name, md),
		})
	}
	return desc
}

// Register adds the CommandService to gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(s.ServiceDesc(), s)
}

// Serve listens on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string, opts ...grpc.ServerOption) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, lis, opts...)
}

// ServeListener serves on lis until ctx is done, then stops gracefully.
func (s *Server) ServeListener(ctx context.Context, lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	s.Register(gs)

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			gs.GracefulStop()
		case <-stopped:
		}
	}()
	defer close(stopped)

	log.FromContext(ctx).Info("serving command handlers", "addr", lis.Addr().String(), "service", string(s.reg.Service().FullName()))
	if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *Server) methodHandler(command string, md protoreflect.MethodDescriptor) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := fmt.Sprintf("/%s/%s", md.Parent().FullName(), md.Name())
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := dynamicpb.NewMessage(md.Input())
		if err := dec(req); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return s.handle(ctx, command, md, req.(*dynamicpb.Message))
		}
		if interceptor == nil {
			return handler(ctx, req)
		}
		return interceptor(ctx, req, &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}, handler)
	}
}

func (s *Server) handle(ctx context.Context, command string, md protoreflect.MethodDescriptor, req *dynamicpb.Message) (resp any, err error) {
	var id string
	if meta, ok := metadata.FromIncomingContext(ctx); ok {
		if v := meta.Get(grpctp.MetadataRequestID); len(v) > 0 {
			id = v[0]
		}
	}
	ctx, id = withRequestID(ctx, id)

	start := time.Now()
	eventbus.Publish(ctx, events.GRPCServerStart{Method: string(md.Name()), RequestID: id})
	defer func() {
		eventbus.Publish(ctx, events.GRPCServerFinish{
			Method:    string(md.Name()),
			RequestID: id,
			Code:      status.Code(err),
			Err:       err,
			Duration:  time.Since(start),
		})
	}()

	input := s.reg.DecodeInput(req)
	payload, err := s.decoder.Decode(command, input)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	ack, err := s.target.Dispatch(ctx, Command{Name: command, RequestID: id, Payload: payload, Input: input})
	if err != nil {
		if errors.Is(err, ErrNoHandler) {
			return nil, status.Error(codes.Unimplemented, err.Error())
		}
		return nil, status.Error(codes.Unknown, err.Error())
	}
	out := dynamicpb.NewMessage(md.Output())
	writeAck(out, ack)
	return out, nil
}
