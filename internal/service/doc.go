// Package service contains the application use cases: account management
// and task CRUD. Services validate through internal/domain, persist through
// the internal/store interfaces inside transactions, and announce committed
// task changes on an events.EventEmitter.
//
// Services return sentinel errors for expected conditions (ErrTaskNotFound,
// ErrInvalidCredentials, store.ErrEmailExists, domain validation errors) so
// that the API layer can map them with errors.Is and errors.As.
package service
