// Package core contains the Deliverect node-set contracts, configuration,
// error envelopes and observability helpers. Adapter packages (pagination,
// webhooks, transport, auth, catalog) depend on this package; core must not
// depend on any of them.
package core
