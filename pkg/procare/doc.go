// Package procare talks to the Procare parent API: listing children, walking
// the paginated daily activity feed to exhaustion, and classifying records
// into downloadable media descriptors. All requests carry the bearer token
// the client was constructed with.
package procare
