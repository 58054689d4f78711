// Package domain contains the core business entities, value objects, and
// domain logic of the application: users with their roles and the short
// text tasks they collaborate on. It is independent of any specific
// infrastructure or delivery mechanism.
package domain
