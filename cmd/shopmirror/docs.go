package main

//go:generate swag init -g cmd/shopmirror/main.go -o docs

// @title           shopmirror API
// @version         0.1.0
// @description     Multi-tenant Shopify mirror: sync triggers, sync ledger and webhooks.
// @host            localhost:5000
// @BasePath        /
// @schemes         http
