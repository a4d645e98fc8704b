// Package app wires the hotfire analysis server together: configuration,
// logging, OpenTelemetry, the websocket hub, the analysis service and the
// chi router.
//
// # Initialization Flow
//
//	1. Load configuration from HOTFIRE_* environment variables
//	2. Initialize logging and observability
//	3. Start the websocket hub and the analysis service
//	4. Set up HTTP handlers and middleware
//	5. Configure the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
package app
