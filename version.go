// Package heron holds build metadata shared by the heron command and packages.
package heron

// Version is the current heron release.
const Version = "0.3.0"
