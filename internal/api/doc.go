// Package api serves memex search over HTTP in the JSON shape launchers
// expect.
//
// Endpoints:
//   - GET /api/?q=<query>&nhits=<n>&offset=<n>  ranked results
//   - GET /healthz                               liveness
package api
