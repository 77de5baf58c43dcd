package mlsclient

import (
	"context"

	"github.com/beevik/etree"
)

// Transport runs one SOAP operation and returns its <Name>Response element. A
// fault raised by the service is returned as a *RemoteCallError. It makes mocking
// the service easier in your tests.
type Transport interface {
	Call(ctx context.Context, op Operation) (*etree.Element, error)
}

// ClientIface defines the operations of the MLS client.
type ClientIface interface {
	Search(ctx context.Context, criteria map[string]string) (*SearchResultSet, error)
	GetPropertyDetails(ctx context.Context, propertyID string) (*Listing, error)
	RequestInfo(ctx context.Context, info Payload, mailTo string) (bool, error)
	SubmitOffer(ctx context.Context, offer Payload, mailTo string) (bool, error)
}

var (
	_ ClientIface = &Client{}
	_ Transport   = &SOAPTransport{}
)
