// Package http implements the HTTP handlers of the hotfire analysis server.
// Handlers stay thin: they parse and validate requests, call the analysis
// service and format the response.
//
// # Routes
//
//	POST   /api/sessions                       upload a CSV or XLSX dataset
//	GET    /api/sessions/{id}                  current state snapshot
//	DELETE /api/sessions/{id}                  close the session
//	PUT    /api/sessions/{id}/columns          manual column assignment
//	PUT    /api/sessions/{id}/window           target thrust or custom range
//	PUT    /api/sessions/{id}/padding          padded mask fraction
//	GET    /api/sessions/{id}/series/{name}    time/value arrays
//	POST   /api/sessions/{id}/average          two-point average
//	POST   /api/sessions/{id}/performance     Isp, exhaust velocity and c*
//	GET    /api/sessions/{id}/statistics       per-channel statistics
//	GET    /api/sessions/{id}/plots/{name}.png PNG chart
//	POST   /api/sessions/{id}/plots/custom     overlay chart
//	GET    /api/sessions/{id}/export.csv       windowed samples
//	GET    /api/sessions/{id}/export.xlsx      metrics workbook
//	GET    /api/sessions/{id}/report.pdf       printed report
//	GET    /api/sessions/{id}/ws               state change stream
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details. Service sentinels are mapped
// to API errors by toAPIError; engine errors carry their kind as an
// extension member:
//
//	{
//	    "type": "/errors/analysis/empty-window",
//	    "title": "Empty Burn Window",
//	    "status": 422,
//	    "detail": "No data in selected window.",
//	    "kind": "empty_window"
//	}
//
// Note that an engine error raised while recomputing is part of the session
// state, not a failed request: PUT /window answers 200 with the error in the
// snapshot's "error" member.
package http
