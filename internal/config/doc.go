// Package config defines installer settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the remote content host URL, the local install root
// and the network timeout.
package config
