package app

import (
	"context"
	"time"

	"github.com/hanpama/boost/internal/eventbus"
	"github.com/hanpama/boost/internal/events"
	"github.com/hanpama/boost/internal/executor"
	"github.com/hanpama/boost/internal/introspection"
	"github.com/hanpama/boost/internal/language"
	"github.com/hanpama/boost/internal/log"
	"github.com/hanpama/boost/internal/reqid"
)

// Execute validates query against the composed schema and executes it.
// Introspection fields are answered from the composed schema.
// Every call runs under one request ID, which the dispatched commands
// share.
func (rt *Runtime) Execute(ctx context.Context, query, operationName string, variables map[string]any) *executor.ExecutionResult {
	ctx, id := reqid.Ensure(ctx)
	logger := log.FromContext(ctx).WithValues("requestId", id)
	ctx = log.WithLogger(ctx, logger)

	start := time.Now()
	opType := ""
	var result *executor.ExecutionResult

	doc, err := language.LoadQuery(rt.AST, query)
	if err == nil {
		if op := operation(doc, operationName); op != nil {
			opType = string(op.Operation)
		}
	}
	eventbus.Publish(ctx, events.GraphQLStart{RequestID: id, Query: query, OperationName: operationName, OperationType: opType})
	defer func() {
		errs := make([]error, len(result.Errors))
		for i, e := range result.Errors {
			errs[i] = e
		}
		eventbus.Publish(ctx, events.GraphQLFinish{
			RequestID:     id,
			Query:         query,
			OperationName: operationName,
			OperationType: opType,
			Errors:        errs,
			Duration:      time.Since(start),
		})
	}()

	if err != nil {
		result = &executor.ExecutionResult{}
		for _, msg := range language.Errors(err) {
			result.Errors = append(result.Errors, executor.GraphQLError{Message: msg})
		}
		logger.V(1).Info("rejected operation", "errors", len(result.Errors))
		return result
	}

	runtime, executable := introspection.Wrap(rt.Resolvers(), rt.Schema)
	ex := executor.NewExecutor(runtime, executable)
	result = ex.ExecuteRequest(ctx, doc, operationName, variables, nil)
	logger.V(1).Info("executed operation", "operation", operationName, "type", opType, "errors", len(result.Errors))
	return result
}

func operation(doc *language.QueryDocument, name string) *language.OperationDefinition {
	if name == "" {
		if len(doc.Operations) == 1 {
			return doc.Operations[0]
		}
		return nil
	}
	return doc.Operations.ForName(name)
}
