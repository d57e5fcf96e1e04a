// Package config manages user-level settings stored at
// ~/.agenthub/config.yaml: subscribed catalog repositories, the
// artifact install root, and the auto-update policy.
package config
