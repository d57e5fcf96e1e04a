// Package auth resolves catalog repository credentials. Repository
// configs reference credentials indirectly — ${secret:KEY} points into
// the local secret store, ${env:VAR} into the process environment — so
// literal tokens never land in the settings file or in logs.
package auth
