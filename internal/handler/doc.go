// Package handler maps the to-do HTTP API onto a store.Store.
//
// Two routes exist: the collection route /todo and the item route /todo/{id}.
// An item is identified by the full URL a client uses to reach it (scheme,
// host and path), which is exactly the url the store assigned when the item
// was created under the same collection URL. Each route carries its own CORS
// policy. Wrap adds panic recovery, request ids, access logging and request
// metrics around any handler.
package handler
