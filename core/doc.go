// Package core defines the normalized data model shared by every layer of
// toolmesh: the Response envelope vendor payloads are decoded into at the
// boundary, the ToolCall / ParsedResponse representations produced by the
// family adapters, and the request shapes consumed by providers.
//
// Vendor responses are heterogeneous and partially undocumented; core
// normalizes them into one structured envelope before any family logic
// runs, so downstream code never branches on wire quirks.
package core
