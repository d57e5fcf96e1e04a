// Package sync keeps the local catalog database in step with remote
// catalog manifests. A refresh fetches the manifest, validates it,
// resolves every artifact's raw-content URL, and replaces the
// catalog's artifacts in one transaction; any failure marks the
// catalog unhealthy without touching its previously synced artifacts.
package sync
