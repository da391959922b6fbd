// Package provisioner decides, for each remote artifact, whether to fetch,
// skip, or overwrite it, and places fetched content at its destination
// without ever leaving a partially written file behind.
//
// Network access goes through the Fetcher capability so tests can install
// from an in-memory host.
package provisioner
