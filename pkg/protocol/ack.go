package protocol

import "fmt"

// AckStatus is the synchronous acknowledgement of a Beckn call
type AckStatus string

const (
	AckStatusACK  AckStatus = "ACK"
	AckStatusNACK AckStatus = "NACK"
)

// Ack carries an acknowledgement status
type Ack struct {
	Status AckStatus `json:"status"`
}

// Error is the error object a gateway attaches to a NACK
type Error struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("beckn error %s (%s): %s", e.Code, e.Type, e.Message)
}

// AckMessage wraps an Ack in the gateway response
type AckMessage struct {
	Ack Ack `json:"ack"`
}

// AckResponse is the gateway's synchronous reply,
// {"message":{"ack":{"status":"ACK"}}}
type AckResponse struct {
	Message *AckMessage `json:"message,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Acked reports whether the gateway accepted the request
func (r *AckResponse) Acked() bool {
	return r != nil && r.Message != nil && r.Message.Ack.Status == AckStatusACK
}

// Status returns the ack status, or "" when the response carries none
func (r *AckResponse) Status() AckStatus {
	if r == nil || r.Message == nil {
		return ""
	}
	return r.Message.Ack.Status
}

// CallbackAck is the reply a BAP sends for an on_ callback,
// {"ack":{"status":"ACK"}}
type CallbackAck struct {
	Ack Ack `json:"ack"`
}

// NewCallbackAck returns a positive callback acknowledgement
func NewCallbackAck() CallbackAck {
	return CallbackAck{Ack: Ack{Status: AckStatusACK}}
}
