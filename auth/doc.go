// Package auth resolves Deliverect credentials and exchanges them for
// bearer tokens using the OAuth2 client-credentials grant.
package auth
