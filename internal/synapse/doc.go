// Package synapse sets entity annotations through the Synapse REST API.
//
// Annotations are held in memory as plain Go values and converted to the
// typed "annotations2" wire shape by [ToWire] before being sent in a single
// PUT by [Client.SetAnnotations]. An optional [TraceToken] from the caller is
// forwarded unchanged on the outbound request so the call can be correlated
// with the caller's own trace.
package synapse
