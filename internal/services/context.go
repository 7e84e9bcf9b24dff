package services

import (
	"context"

	"github.com/lireddit/apiserver/internal/session"
)

// RequestContext is passed explicitly to every resolver call. Ctx carries
// request-scoped cancellation for store calls; Session is the caller's
// cookie-backed session.
type RequestContext struct {
	Ctx     context.Context
	Session session.Session
}
