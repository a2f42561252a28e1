package platform

import (
	"context"
	"net/http"
	"net/url"
)

// ListEvents returns the public event catalogue.
func (c *Client) ListEvents(ctx context.Context, filter EventFilter) ([]Event, error) {
	path := "/events"
	if q := filter.query(); q != "" {
		path += "?" + q
	}

	var events []Event
	if err := c.call(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (f EventFilter) query() string {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("keyword", f.Keyword)
	set("category", f.Category)
	set("dateRange", f.DateRange)
	set("sortBy", f.SortBy)
	set("order", f.Order)
	return v.Encode()
}

// GetEvent retrieves one event.
func (c *Client) GetEvent(ctx context.Context, id string) (*Event, error) {
	var event Event
	if err := c.call(ctx, http.MethodGet, "/events/"+escape(id), nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateEvent submits a new event for approval. Organizers only.
func (c *Client) CreateEvent(ctx context.Context, in EventInput) (*Event, error) {
	var event Event
	if err := c.call(ctx, http.MethodPost, "/events", in, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent edits an event.
func (c *Client) UpdateEvent(ctx context.Context, id string, in EventInput) (*Event, error) {
	var event Event
	if err := c.call(ctx, http.MethodPut, "/events/"+escape(id), in, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/events/"+escape(id), nil, nil)
}

// MyEvents lists the events created by the logged-in organizer.
func (c *Client) MyEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := c.call(ctx, http.MethodGet, "/events/myevents", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// PendingEvents lists events awaiting admin approval.
func (c *Client) PendingEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := c.call(ctx, http.MethodGet, "/events/pending", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ApproveEvent publishes a pending event.
func (c *Client) ApproveEvent(ctx context.Context, id string) (*Message, error) {
	var msg Message
	if err := c.call(ctx, http.MethodPut, "/events/"+escape(id)+"/approve", nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RejectEvent declines a pending event.
func (c *Client) RejectEvent(ctx context.Context, id string) (*Message, error) {
	var msg Message
	if err := c.call(ctx, http.MethodPut, "/events/"+escape(id)+"/reject", nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RegisterForEvent signs the logged-in student up for an event.
func (c *Client) RegisterForEvent(ctx context.Context, id string) (*Message, error) {
	var msg Message
	if err := c.call(ctx, http.MethodPost, "/events/"+escape(id)+"/register", nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RegisteredEvents lists the events the logged-in student signed up for.
func (c *Client) RegisteredEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := c.call(ctx, http.MethodGet, "/users/registeredevents", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// EventQRCode fetches the opaque QR pass payload for an event.
func (c *Client) EventQRCode(ctx context.Context, id string) (*QRPass, error) {
	var pass QRPass
	if err := c.call(ctx, http.MethodGet, "/events/"+escape(id)+"/qrcode", nil, &pass); err != nil {
		return nil, err
	}
	return &pass, nil
}

// VerifyQR checks a scanned pass payload with the server.
func (c *Client) VerifyQR(ctx context.Context, token string) (*QRVerification, error) {
	var result QRVerification
	body := map[string]string{"qrToken": token}
	if err := c.call(ctx, http.MethodPost, "/events/verifyqr", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
