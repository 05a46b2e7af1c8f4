// Package redisserver serves the in-process command engine over RESP2 so
// that the go-redis adapter, the nskv CLI and redis-cli can talk to a local
// development store.
//
// Supported beyond the engine's command table: AUTH (one or two
// arguments), QUIT, and MULTI/EXEC/DISCARD with queue-time validation.
// HELLO and CLIENT are answered with an unknown-command error, which makes
// RESP3 clients fall back to RESP2 and AUTH.
package redisserver
