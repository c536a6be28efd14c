//go:build tools

// Package tools pins the swagger runtime imported by the generated docs package
// (swag init -g cmd/alertctl-api/main.go -o internal/services/api/docs, built with -tags swag)
package tools

import _ "github.com/swaggo/swag/v2"
