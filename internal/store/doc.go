// Package store is the persistent catalog index: subscribed catalogs,
// their advertised artifacts, local installations, and a full-text
// index over the artifact table. All multi-row writes run in explicit
// transactions; the FTS index is maintained by triggers inside the same
// transaction, so readers never observe an artifact without its index
// entry or vice versa.
package store
