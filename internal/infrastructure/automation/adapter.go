// Package automation drives real browser sessions against marketplaces that
// have no publishing API. One adapter per platform; they differ in payload
// shape and error classification, not in control flow.
package automation

import (
	"context"

	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/crosspost/backend/internal/infrastructure/proxy"
	"github.com/shopspring/decimal"
)

// Credentials authenticate one seller account on one platform
type Credentials struct {
	Email    string
	Password string
}

// Payload is everything a submission form needs. CategoryPath is the
// resolved taxonomy walk for platforms that demand a category; others
// ignore it.
type Payload struct {
	Title        string
	Description  string
	Price        decimal.Decimal
	ImagePaths   []string
	CategoryPath []string
	Brand        string
	Size         string
	Condition    string
	Location     string
	Colors       []string
}

// Result is what a successful submission yields
type Result struct {
	URL string
}

// Session is an authenticated browser session scoped to one publish task.
// It must be closed by the caller; sessions are not shared across tasks.
type Session interface {
	SubmitListing(ctx context.Context, p Payload) (*Result, error)
	DeleteListing(ctx context.Context, listingURL string) error
	Close() error
}

// Adapter opens sessions against one marketplace. Errors returned from
// Authenticate and from Session methods carry their own severity via
// RecoverableError and FatalError.
type Adapter interface {
	Platform() shared.Platform
	Authenticate(ctx context.Context, creds Credentials, egress *proxy.Descriptor) (Session, error)
}
