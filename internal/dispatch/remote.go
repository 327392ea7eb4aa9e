package dispatch

import (
	"context"
	"fmt"

	"github.com/hanpama/boost/internal/protoreg"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Caller performs one unary call with dynamic messages. *grpctp.Transport
// implements it.
type Caller interface {
	Call(ctx context.Context, method protoreflect.MethodDescriptor, request protoreflect.Message) (protoreflect.Message, error)
}

// Remote dispatches commands through the CommandService.
type Remote struct {
	reg    *protoreg.Registry
	caller Caller
}

func NewRemote(reg *protoreg.Registry, caller Caller) *Remote {
	return &Remote{reg: reg, caller: caller}
}

func (r *Remote) Handles(name string) bool {
	_, ok := r.reg.Method(name)
	return ok
}

func (r *Remote) Dispatch(ctx context.Context, cmd Command) (ack Ack, err error) {
	md, ok := r.reg.Method(cmd.Name)
	if !ok {
		return Ack{}, fmt.Errorf("%w %s", ErrNoHandler, cmd.Name)
	}
	ctx, cmd.RequestID = withRequestID(ctx, cmd.RequestID)

	done := observe(ctx, cmd, "grpc")
	defer func() { done(ack, err) }()

	req, err := r.reg.EncodeInput(cmd.Name, cmd.Input)
	if err != nil {
		return Ack{}, err
	}
	resp, err := r.caller.Call(ctx, md, req)
	if err != nil {
		return Ack{}, fmt.Errorf("dispatch: %s: %w", cmd.Name, err)
	}
	return readAck(resp), nil
}

func readAck(msg protoreflect.Message) Ack {
	fields := msg.Descriptor().Fields()
	var ack Ack
	if fd := fields.ByName("accepted"); fd != nil {
		ack.Accepted = msg.Get(fd).Bool()
	}
	if fd := fields.ByName("request_id"); fd != nil {
		ack.RequestID = msg.Get(fd).String()
	}
	return ack
}

func writeAck(msg protoreflect.Message, ack Ack) {
	fields := msg.Descriptor().Fields()
	if fd := fields.ByName("accepted"); fd != nil {
		msg.Set(fd, protoreflect.ValueOfBool(ack.Accepted))
	}
	if fd := fields.ByName("request_id"); fd != nil {
		msg.Set(fd, protoreflect.ValueOfString(ack.RequestID))
	}
}
