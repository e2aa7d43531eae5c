// Package middleware wraps an audit log to protect message content at rest.
package middleware

import "github.com/aretw0/colloquy/pkg/ports"

// Middleware allows wrapping an AuditLog to add behavior.
type Middleware func(ports.AuditLog) ports.AuditLog

// Chain applies middlewares so that the first one sees records first.
func Chain(log ports.AuditLog, mws ...Middleware) ports.AuditLog {
	for i := len(mws) - 1; i >= 0; i-- {
		log = mws[i](log)
	}
	return log
}
