// Package webhooks verifies and classifies inbound Deliverect order
// webhooks. Verification is HMAC-SHA256 over the exact raw body, hex
// encoded in the x-deliverect-signature header, compared in constant time.
// Handlers keep no state between deliveries.
package webhooks
