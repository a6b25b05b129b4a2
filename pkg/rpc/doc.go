// Package rpc is a client for the HTTP JSON API served by Octra nodes.
//
// The node exposes a handful of plain HTTP endpoints:
//
//	GET  /balance/{address}          balance and nonce of an account
//	GET  /staging                    transactions accepted but not yet in an epoch
//	GET  /address/{address}?limit=N  recent transaction references of an account
//	GET  /tx/{hash}                  a single transaction
//	POST /send-tx                    submit a signed transaction
//
// # Raw requests
//
// Client.Do never fails: transport errors and timeouts are reported as a
// Response with Status 0 and the error text in Text. Bodies that parse as
// JSON are also exposed raw through Response.JSON.
//
//	resp := client.Do(ctx, http.MethodGet, "/staging", nil, 0)
//	if resp.Status != http.StatusOK {
//	    return resp.Error()
//	}
//
// # Typed calls
//
// GetBalance, GetStaging, GetAddress, GetTransaction and SendTransaction
// decode the node's answers. Failed calls return an *Error carrying the
// HTTP status and body; a 404 also matches ErrNotFound:
//
//	bal, err := client.GetBalance(ctx, address)
//	if errors.Is(err, rpc.ErrNotFound) {
//	    // account has never received funds
//	}
//
// Read calls may be retried with exponential backoff (see WithRetry). A
// transaction submission is never retried since the node may already have
// accepted it.
package rpc
