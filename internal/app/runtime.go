package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanpama/boost/internal/config"
	"github.com/hanpama/boost/internal/dispatch"
	"github.com/hanpama/boost/internal/executor"
	"github.com/hanpama/boost/internal/grpctp"
	"github.com/hanpama/boost/internal/log"
	"github.com/hanpama/boost/internal/mutation"
	"github.com/hanpama/boost/internal/protoreg"
	"github.com/hanpama/boost/internal/resolver"
	"github.com/hanpama/boost/internal/schema"
	"github.com/vektah/gqlparser/v2/ast"
)

// Query root of every app. It exists so that the schema is valid GraphQL.
const (
	queryTypeName = "Query"
	infoTypeName  = "BoostInfo"
)

func infoType() *schema.Type {
	str := schema.NonNullType(schema.NamedType("String"))
	return schema.NewType(infoTypeName, schema.TypeKindObject, "Describes the running application.").
		AddField(schema.NewField("name", "", str)).
		AddField(schema.NewField("version", "", str)).
		AddField(schema.NewField("provider", "", str)).
		AddField(schema.NewField("commands", "Registered commands in mutation order.",
			schema.NonNullType(schema.ListType(str))))
}

func queryType() *schema.Type {
	return schema.NewType(queryTypeName, schema.TypeKindObject, "").
		AddField(schema.NewField("boost", "", schema.NonNullType(schema.NamedType(infoTypeName))))
}

// Runtime is an app composed for one configuration.
type Runtime struct {
	Config     *config.Config
	Schema     *schema.Schema
	AST        *ast.Schema
	Mutation   *mutation.Schema
	Protos     *protoreg.Registry
	Dispatcher dispatch.Dispatcher
	// Decoder turns command inputs into command values for the local handlers.
	Decoder *resolver.Factory

	app     *App
	closers []func() error
}

// Build composes the app for cfg. With the grpc provider the mutations
// dispatch through the CommandService at cfg.GRPC.Endpoints.
func (a *App) Build(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	var opts []resolver.Option
	if cfg.GraphQL.Acknowledgement == config.AcknowledgementObject {
		opts = append(opts, resolver.WithAcknowledgementObject())
	}
	local := resolver.New(a.registry, a.local, opts...)
	rt := &Runtime{Config: cfg, Dispatcher: a.local, Decoder: local, app: a}
	if err := rt.compose(local); err != nil {
		return nil, err
	}
	protos, err := protoreg.Build(cfg.Name, rt.Schema)
	if err != nil {
		return nil, err
	}
	rt.Protos = protos

	if cfg.Provider == config.ProviderGRPC {
		tp := grpctp.New(
			grpctp.WithProvider(grpctp.NewStaticEndpoints(map[string][]string{
				string(protos.Service().FullName()): cfg.GRPC.Endpoints,
			})),
			grpctp.WithMaxConnsPerEndpoint(cfg.GRPC.MaxConnsPerEndpoint),
			grpctp.WithRPCTimeout(cfg.GRPC.RPCTimeout),
		)
		rt.closers = append(rt.closers, tp.Close)
		remote := dispatch.NewRemote(protos, tp)
		if err := rt.compose(resolver.New(a.registry, remote, opts...)); err != nil {
			rt.Close()
			return nil, err
		}
		rt.Dispatcher = remote
	}
	log.FromContext(ctx).V(1).Info("composed application",
		"app", cfg.Name, "provider", cfg.Provider, "mutations", rt.Mutation.Len())
	return rt, nil
}

// compose builds the executable schema with resolvers from factory.
func (rt *Runtime) compose(factory mutation.ResolverFactory) error {
	var opts []mutation.Option
	if rt.Config.GraphQL.Acknowledgement == config.AcknowledgementObject {
		opts = append(opts, mutation.WithReturnType(schema.NonNullType(schema.NamedType(mutation.AcknowledgementTypeName))))
	}
	ms, err := mutation.Build(rt.app.registry, rt.app.informer, factory, opts...)
	if err != nil {
		return err
	}

	s := schema.NewSchema(fmt.Sprintf("Commands of %s.", rt.Config.Name))
	s.SetQueryType(queryTypeName)
	if err := s.Merge(queryType(), infoType()); err != nil {
		return err
	}
	if ms != nil {
		if err := s.Merge(rt.app.informer.Types()...); err != nil {
			return err
		}
		if rt.Config.GraphQL.Acknowledgement == config.AcknowledgementObject {
			if err := s.Merge(mutation.AcknowledgementType()); err != nil {
				return err
			}
		}
		if err := s.Merge(ms.ObjectType()); err != nil {
			return err
		}
		s.SetMutationType(ms.Name)
	}
	loaded, err := schema.Validate(s)
	if err != nil {
		return err
	}
	rt.Schema, rt.AST, rt.Mutation = s, loaded, ms
	return nil
}

// Resolvers returns the field resolvers of the composed schema.
func (rt *Runtime) Resolvers() executor.Resolvers {
	commands := rt.app.Commands()
	r := executor.Resolvers{
		queryTypeName + ".boost": func(context.Context, any, map[string]any) (any, error) {
			return map[string]any{
				"name":     rt.Config.Name,
				"version":  rt.Config.Version,
				"provider": rt.Config.Provider,
				"commands": commands,
			}, nil
		},
	}
	if rt.Mutation == nil {
		return r
	}
	for _, f := range rt.Mutation.Fields {
		resolve := f.Resolver
		r[rt.Mutation.Name+"."+f.Name] = func(ctx context.Context, _ any, args map[string]any) (any, error) {
			return resolve(ctx, args)
		}
	}
	return r
}

// Server returns the CommandService backed by the in-process handlers.
func (rt *Runtime) Server() *dispatch.Server {
	return dispatch.NewServer(rt.Protos, rt.Decoder, rt.app.local)
}

// Close releases the connections opened by Build.
func (rt *Runtime) Close() error {
	var errs []error
	for _, c := range rt.closers {
		errs = append(errs, c())
	}
	rt.closers = nil
	return errors.Join(errs...)
}
