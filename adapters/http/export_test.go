package http

// StatusLabel exposes statusLabel for tests.
var StatusLabel = statusLabel
