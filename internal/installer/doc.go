// Package installer materializes catalog artifacts on disk and keeps
// the installation records in the store in step with the files it
// writes. Install operations report outcomes as data rather than
// errors so batch flows can aggregate partial failures.
package installer
