// Package server provides the HTTP surface of surplus.
//
// It serves the add-device form, the device list with substring search,
// the CSV export, the source-tree backup download and a health endpoint.
// Flash notices travel in a signed session cookie between a POST and the
// page it redirects to.
package server
