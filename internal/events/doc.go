// Package events carries task lifecycle events from the services that
// persist changes to the components that react to them, such as the
// realtime lock coordinator, without either side importing the other.
package events
