// Package catalog declares the Deliverect REST operations grouped by API
// resource and renders them into page request templates.
package catalog
