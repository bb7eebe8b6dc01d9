// Package conv holds small conversion helpers shared by the proxy packages.
//
// RequestID decodes raw JSON-RPC ids into stable Go values and AsInt coerces
// numeric id representations into a plain int for logging.
package conv
