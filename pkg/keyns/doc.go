// Package keyns implements key namespacing for a store shared by many tenants.
//
// Every logical key is prefixed with the configured namespace before it
// reaches the store:
//
//	ns := keyns.New("billing:")
//	ns.Key("invoice:42")       // "billing:invoice:42"
//	ns.Key("billing:invoice")  // unchanged, already prefixed
//	ns.Key("{acct7}invoice")   // "{acct7}billing:invoice"
//
// A leading cluster tag ("{...}") is kept in front of the prefix so that
// the store hashes the key to the same slot it would have without the
// namespace. Prefixing is idempotent.
package keyns
