// Package pagination drains a Deliverect list endpoint into one ordered
// result set. It understands both page shapes the API returns: a flat list
// of records, and a single wrapper record carrying "_items" and "_meta".
package pagination
