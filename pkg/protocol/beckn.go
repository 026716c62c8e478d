// Copyright (C) 2025 SAGE-X Project
//
// This file is part of sage-beckn-go.
//
// sage-beckn-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// sage-beckn-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with sage-beckn-go.  If not, see <https://www.gnu.org/licenses/>.

package protocol

import (
	"time"

	"github.com/sage-x-project/sage-beckn-go/pkg/canonical"
)

const (
	// DefaultCoreVersion is the Beckn core version written into contexts
	DefaultCoreVersion = "1.1.0"

	DefaultDomain  = "uei:charging"
	DefaultCountry = "IND"
	DefaultCity    = "std:080"

	// DefaultGPS is used when a search names no start location
	DefaultGPS = "12.9715987,77.5945627"

	// TimestampLayout is RFC 3339 in UTC with millisecond precision
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// DefaultRadius is the search radius around the start location
var DefaultRadius = Radius{Type: "CONSTANT", Value: "5", Unit: "km"}

// Context is the Beckn request context
type Context struct {
	Domain        string   `json:"domain"`
	Action        Action   `json:"action"`
	Location      Location `json:"location"`
	CoreVersion   string   `json:"core_version"`
	BapID         string   `json:"bap_id"`
	BapURI        string   `json:"bap_uri"`
	BppID         string   `json:"bpp_id,omitempty"`
	BppURI        string   `json:"bpp_uri,omitempty"`
	TransactionID string   `json:"transaction_id"`
	MessageID     string   `json:"message_id"`
	Timestamp     string   `json:"timestamp"`

	// TTL is an ISO 8601 duration, e.g. "PT30S"
	TTL string `json:"ttl,omitempty"`
}

// Location is the country and city a request applies to
type Location struct {
	Country Code `json:"country"`
	City    Code `json:"city"`
}

// Code wraps a coded value such as a country code
type Code struct {
	Code string `json:"code"`
}

// Request is the envelope posted to the gateway for every action
type Request struct {
	Context Context `json:"context"`
	Message any     `json:"message"`
}

// SearchMessage is the message of a search request
type SearchMessage struct {
	Intent Intent `json:"intent"`
}

// Intent describes what the buyer is looking for
type Intent struct {
	Fulfillment *Fulfillment `json:"fulfillment,omitempty"`
}

// Fulfillment holds the start point of a search
type Fulfillment struct {
	Start *Stop `json:"start,omitempty"`
}

// Stop is a point in a fulfillment
type Stop struct {
	Location *GeoLocation `json:"location,omitempty"`
}

// GeoLocation is a "lat,lng" string with an optional radius
type GeoLocation struct {
	GPS    string  `json:"gps"`
	Radius *Radius `json:"radius,omitempty"`
}

// Radius bounds a search around a GeoLocation
type Radius struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// NewSearchMessage builds a search intent around gps with the given radius
func NewSearchMessage(gps string, radius Radius) *SearchMessage {
	r := radius
	return &SearchMessage{
		Intent: Intent{
			Fulfillment: &Fulfillment{
				Start: &Stop{Location: &GeoLocation{GPS: gps, Radius: &r}},
			},
		},
	}
}

// NewRequest pairs a context with a message
func NewRequest(ctx *Context, message any) *Request {
	return &Request{Context: *ctx, Message: message}
}

// SearchGPS returns the start GPS of a search body, if present and non-empty
func SearchGPS(body canonical.Value) (string, bool) {
	v, ok := body.Lookup("message", "intent", "fulfillment", "start", "location", "gps")
	if !ok {
		return "", false
	}
	gps, ok := v.AsString()
	if !ok || gps == "" {
		return "", false
	}
	return gps, true
}

// FormatTimestamp renders t the way Beckn contexts carry it
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Validate performs basic validation on the context
func (c *Context) Validate() error {
	if c.Domain == "" {
		return ErrInvalidContext{"domain is required"}
	}
	if !c.Action.Valid() {
		return ErrInvalidContext{"unknown action " + string(c.Action)}
	}
	if c.CoreVersion == "" {
		return ErrInvalidContext{"core_version is required"}
	}
	if c.BapID == "" {
		return ErrInvalidContext{"bap_id is required"}
	}
	if c.BapURI == "" {
		return ErrInvalidContext{"bap_uri is required"}
	}
	if c.TransactionID == "" {
		return ErrInvalidContext{"transaction_id is required"}
	}
	if c.MessageID == "" {
		return ErrInvalidContext{"message_id is required"}
	}
	if _, err := time.Parse(time.RFC3339, c.Timestamp); err != nil {
		return ErrInvalidContext{"timestamp must be RFC 3339"}
	}
	return nil
}

// ErrInvalidContext is returned when a Beckn context is invalid
type ErrInvalidContext struct {
	Message string
}

func (e ErrInvalidContext) Error() string {
	return "invalid beckn context: " + e.Message
}
