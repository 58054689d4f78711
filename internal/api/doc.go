// Package api handles incoming HTTP requests, request validation and
// response formatting for the task board. It acts as an adapter between
// REST clients and the internal services, translating HTTP concerns to
// business operations.
package api
