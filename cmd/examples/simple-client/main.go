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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/sage-x-project/sage-beckn-go/pkg/client"
	"github.com/sage-x-project/sage-beckn-go/pkg/keys"
	"github.com/sage-x-project/sage-beckn-go/pkg/protocol"
	"github.com/sage-x-project/sage-beckn-go/pkg/signer"
)

func main() {
	gatewayURL := flag.String("gateway", "", "Gateway base URL (default: an in-process echo gateway)")
	subscriberID := flag.String("subscriber", "bap.example.org", "Subscriber id used as keyId")
	flag.Parse()

	fmt.Println("SAGE Beckn Go - Simple Client Example")
	fmt.Println("=====================================")

	ctx := context.Background()

	// Generate an ephemeral key pair
	fmt.Println("\n1. Generating Ed25519 key pair...")
	keyPair, err := keys.Generate()
	if err != nil {
		log.Fatalf("Failed to generate key pair: %v", err)
	}
	fmt.Printf("   Public key: %s\n", keyPair.PublicKeyBase64())

	// Build a search request
	fmt.Println("\n2. Building search request...")
	bctx, err := protocol.NewContextBuilder(protocol.ActionSearch).
		WithBAP(*subscriberID, "https://"+*subscriberID).
		Build()
	if err != nil {
		log.Fatalf("Failed to build context: %v", err)
	}
	req := protocol.NewRequest(bctx, protocol.NewSearchMessage(protocol.DefaultGPS, protocol.DefaultRadius))
	fmt.Printf("   Transaction: %s\n", bctx.TransactionID)

	// Preview the headers
	fmt.Println("\n3. Signing...")
	headers, err := signer.NewDefaultBecknSigner().CreateHeaders(ctx, req, *subscriberID, keyPair)
	if err != nil {
		log.Fatalf("Failed to sign: %v", err)
	}
	fmt.Printf("   Digest: %s\n", headers.Digest)
	fmt.Printf("   Authorization: %s\n", headers.Authorization)

	target := *gatewayURL
	if target == "" {
		gw := httptest.NewServer(http.HandlerFunc(echoGateway))
		defer gw.Close()
		target = gw.URL
		fmt.Println("\n   (no -gateway given, using an in-process echo gateway)")
	}

	// Send it
	fmt.Println("\n4. Posting to " + target + "/search ...")
	c := client.NewBecknClient(*subscriberID, keyPair, nil)
	resp, err := c.Post(ctx, target+"/search", req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("   HTTP %d: %s\n", resp.StatusCode, body)

	fmt.Println("\n✅ Example completed!")
}

// echoGateway ACKs every request and echoes back the headers it received
func echoGateway(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": map[string]any{"ack": map[string]string{"status": "ACK"}},
		"received": map[string]string{
			"digest":        r.Header.Get(signer.HeaderDigest),
			"authorization": r.Header.Get(signer.HeaderAuthorization),
		},
	})
}
