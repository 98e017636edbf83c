// Package api is the HTTP adapter over the lifecycle, session and review
// services. It decodes and validates requests, maps service errors to status
// codes with client-safe messages, and renders calendar dates as YYYY-MM-DD.
//
// Routes are mounted by NewRouter; see router.go for the full table.
package api
