// Package accountapi is the HTTP transport to the account service. It
// implements clinicauth.AccountService over a JSON API.
//
// The client owns request correlation (an X-Request-ID header per call)
// and error shaping; it performs no retries and no session logic. The
// Manager treats everything it returns as opaque apart from the payload
// flags defined in clinicauth.
package accountapi
