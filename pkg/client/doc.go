// Package client provides an HTTP client that signs Beckn requests.
//
// BecknClient wraps an http.Client and attaches the Digest and
// Authorization headers of the signer package to every request it sends.
//
// # Basic Usage
//
//	kp, err := keys.Load("keys")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c := client.NewBecknClient("bap.example.org", kp, nil)
//
//	resp, err := c.Post(ctx, "https://gateway.becknprotocol.io/search", searchRequest)
//	if err != nil {
//	    return err
//	}
//	defer resp.Body.Close()
//
// Post serializes the payload canonically and sends exactly the bytes the
// digest was computed over. Do accepts a prepared request with a JSON body
// and rewrites that body to its canonical form before signing.
//
// # Custom HTTP Client
//
//	httpClient := &http.Client{Timeout: 30 * time.Second}
//	c := client.NewBecknClient(subscriberID, kp, httpClient)
//
// # Error Handling
//
// A signing failure is returned before any network activity, so an
// unsigned request never reaches the gateway. Non-2xx responses are not
// errors at this layer; see the transport package for ACK handling.
//
// # Thread Safety
//
// BecknClient is safe for concurrent use by multiple goroutines.
package client
