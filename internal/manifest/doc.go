// Package manifest defines the catalog manifest wire format and its
// validation. A manifest is the JSON document fetched from a catalog's
// URL enumerating the artifacts it advertises.
package manifest
