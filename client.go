package mlsclient

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Operation names of the MLS service
const (
	OpGetProperties      = "GetProperties"
	OpGetPropertyDetails = "GetPropertyDetails"
	OpRequestInfo        = "RequestInfo"
	OpSubmitOffer        = "SubmitOffer"
)

var serviceOperations = []string{OpGetProperties, OpGetPropertyDetails, OpRequestInfo, OpSubmitOffer}

// Client is the MLS service client. Its configuration is immutable; it is as
// safe for concurrent use as its Transport (SOAPTransport is).
type Client struct {
	apiKey    string
	memberID  string
	logger    *slog.Logger
	transport Transport
}

// New validates cfg and binds a SOAPTransport to cfg.Endpoint. Binding failures
// are returned as *ConnectionError.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	transport, err := NewSOAPTransport(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewWithTransport(cfg, transport)
}

// NewWithTransport creates a client over any Transport, e.g. a mock. Only the
// credentials and Logger of cfg are used.
func NewWithTransport(cfg Config, transport Transport) (*Client, error) {
	switch {
	case cfg.APIKey == "":
		return nil, ErrMissingAPIKey
	case cfg.MemberID == "":
		return nil, ErrMissingMemberID
	case transport == nil:
		return nil, ErrNilTransport
	}

	return &Client{
		apiKey:    cfg.APIKey,
		memberID:  cfg.MemberID,
		logger:    cfg.logger(),
		transport: transport,
	}, nil
}

// Operations lists the operations the bound service describes. It returns nil
// when the transport is not a SOAPTransport.
func (c *Client) Operations() []string {
	if t, ok := c.transport.(*SOAPTransport); ok {
		return t.Operations()
	}

	return nil
}

func (c *Client) call(ctx context.Context, op Operation) (*etree.Element, error) {
	resp, err := c.transport.Call(ctx, op)
	if err != nil {
		return nil, remoteErr(op.Name, err)
	}

	return resp, nil
}

// Search returns the listings matching criteria grouped by resort name. A search
// matching nothing returns an empty set and no error.
func (c *Client) Search(ctx context.Context, criteria map[string]string) (*SearchResultSet, error) {
	params, err := NewSearchParameters(criteria)
	if err != nil {
		return nil, err
	}

	resp, err := c.call(ctx, Operation{
		Name: OpGetProperties,
		Params: []Param{
			{Name: "Search", Value: params},
			{Name: "Key", Value: c.apiKey},
			{Name: "MemberID", Value: c.memberID},
		},
	})
	if err != nil {
		return nil, err
	}

	var listings []Listing
	if results := resp.FindElement("GetPropertiesResult/SearchResults"); results != nil {
		for _, el := range results.ChildElements() {
			listings = append(listings, listingFromElement(el))
		}
	}

	set := newSearchResultSet(listings)

	c.logger.Debug("search finished",
		slog.Any("criteria", params.Values()),
		slog.Int("total", set.Total),
		slog.Int("resorts", set.Len()),
	)

	return set, nil
}

// GetPropertyDetails returns the details of one listing, or nil when the service
// has none for propertyID.
func (c *Client) GetPropertyDetails(ctx context.Context, propertyID string) (*Listing, error) {
	resp, err := c.call(ctx, Operation{
		Name: OpGetPropertyDetails,
		Params: []Param{
			{Name: "PropertyID", Value: propertyID},
			{Name: "Key", Value: c.apiKey},
		},
	})
	if err != nil {
		return nil, err
	}

	result := resp.SelectElement(OpGetPropertyDetails + "Result")
	if isEmpty(result) {
		c.logger.Debug("property not found", slog.String("property_id", propertyID))
		return nil, nil
	}

	l := listingFromElement(result)

	return &l, nil
}

// RequestInfo asks the service to mail an information request to mailTo.
func (c *Client) RequestInfo(ctx context.Context, info Payload, mailTo string) (bool, error) {
	return c.acknowledged(ctx, OpRequestInfo, "oInfo", info, mailTo)
}

// SubmitOffer asks the service to mail a purchase offer to mailTo.
func (c *Client) SubmitOffer(ctx context.Context, offer Payload, mailTo string) (bool, error) {
	return c.acknowledged(ctx, OpSubmitOffer, "oOffer", offer, mailTo)
}

// acknowledged runs a write-back operation. A response without a readable
// <Name>Result counts as not acknowledged, not as an error.
func (c *Client) acknowledged(ctx context.Context, opName, payloadName string, payload Payload, mailTo string) (bool, error) {
	resp, err := c.call(ctx, Operation{
		Name: opName,
		Params: []Param{
			{Name: "Key", Value: c.apiKey},
			{Name: payloadName, Value: payload},
			{Name: "MailTo", Value: mailTo},
		},
	})
	if err != nil {
		return false, err
	}

	result := resp.SelectElement(opName + "Result")
	if result == nil {
		c.logger.Warn("response has no acknowledgment", slog.String("operation", opName))
		return false, nil
	}

	ack, err := strconv.ParseBool(strings.TrimSpace(result.Text()))
	if err != nil {
		c.logger.Warn("unreadable acknowledgment",
			slog.String("operation", opName),
			slog.String("value", result.Text()),
		)
		return false, nil
	}

	return ack, nil
}

func isEmpty(el *etree.Element) bool {
	if el == nil {
		return true
	}

	if el.SelectAttrValue("nil", "") == "true" {
		return true
	}

	return len(el.ChildElements()) == 0 && strings.TrimSpace(el.Text()) == ""
}
