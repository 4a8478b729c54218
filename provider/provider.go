// Package provider hosts the vendor SDK backends that turn a normalized
// request into a normalized response envelope. Providers do no family logic;
// they speak one SDK each and leave interpretation to the adapter layer.
package provider

import (
	"context"

	"github.com/hupe1980/toolmesh/core"
)

// Info describes a provider implementation.
type Info struct {
	// Name is the configured model identifier.
	Name string
	// Vendor names the backing API ("openai", "anthropic").
	Vendor string
	// SupportsTools reports whether the backend accepts tool declarations.
	SupportsTools bool
}

// Provider executes one completion round-trip against a vendor API.
type Provider interface {
	// Complete sends the request and decodes the vendor payload into the
	// normalized response envelope.
	Complete(ctx context.Context, req *core.Request) (*core.Response, error)

	// Info returns metadata describing this provider implementation.
	Info() Info
}
