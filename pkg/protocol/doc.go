// Package protocol defines the Beckn message types a BAP exchanges with a
// gateway.
//
// Every Beckn call is a POST of a Request envelope to /<action>. The
// envelope carries a Context that identifies the network domain, the
// caller (bap_id, bap_uri) and the transaction, plus an action specific
// message. The gateway replies synchronously with an AckResponse and later
// delivers results to the caller's on_<action> route.
//
// # Building a context
//
//	ctx, err := protocol.NewContextBuilder(protocol.ActionSearch).
//	    WithBAP("bap.example.org", "https://bap.example.org").
//	    WithLocation("IND", "std:080").
//	    Build()
//
// Build assigns fresh UUIDs to transaction_id and message_id when they are
// not set and stamps the context in UTC with millisecond precision.
//
// # Search
//
//	req := protocol.NewRequest(ctx, protocol.NewSearchMessage(gps, protocol.DefaultRadius))
//
// # Callbacks
//
// Action.Callback returns the route name a gateway calls back on, and
// ParseCallback maps it back. A BAP answers each callback with
// NewCallbackAck.
package protocol
