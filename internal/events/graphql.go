package events

import "time"

// GraphQLStart is published before an operation executes. Operations that
// fail validation are published too, with an empty OperationType.
type GraphQLStart struct {
	RequestID     string
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is published once the operation has a result. Errors
// holds the GraphQL errors of the result.
type GraphQLFinish struct {
	RequestID     string
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}
