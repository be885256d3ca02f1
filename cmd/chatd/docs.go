package main

// General API documentation for swaggo. Run `swag init -g cmd/chatd/docs.go -o docs` to regenerate.
//
// @title           chatd API
// @version         2.0.0
// @description     HTTP API for single-model chat inference.
//
// @contact.name   chatd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
