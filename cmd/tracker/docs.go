package main

//go:generate swag init -g cmd/tracker/main.go -o docs

// @title           Coinwatch API
// @version         0.1.0
// @description     Rate-limited crypto price tracking: current price, history, stats, backfill.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
