// Package api exposes the feature services over HTTP with gin.
//
// Successful responses carry {"data": ..., "meta": ...}; failures carry
// {"error": {...}} with the status derived from the error kind. A request
// sent with "Cache-Control: no-cache" skips cached responses and refreshes
// them.
package api
