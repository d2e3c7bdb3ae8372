// Package catapult is a Go client for the Catapult (Bandwidth) voice and
// messaging REST API.
//
// Basic usage:
//
//	client, err := catapult.New("u-123", "t-abc", "secret")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	id, err := client.Calls.Create(ctx, catapult.CreateCallRequest{
//	    From: "+19195551212",
//	    To:   "+19195551313",
//	})
//
// Every method performs at most one HTTP request and honors the context
// for cancellation. The client holds no mutable state after construction and
// is safe for concurrent use.
package catapult

// Version is the SDK version.
const Version = "1.0.0"

const (
	// DefaultBaseURL is the production Catapult endpoint.
	DefaultBaseURL = "https://api.catapult.inetwork.com"

	// DefaultAPIVersion is the path segment used when a request does not
	// select one.
	DefaultAPIVersion = "v1"
)
