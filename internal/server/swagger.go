package server

//go:generate swag init -g internal/server/server.go -o internal/server/docs

// @title SiteLens API
// @version 0.1
// @description Website overview scans: technology, security headers, DNS, WHOIS, performance estimates and scan history.
// @contact.name SiteLens Maintainers
// @contact.url https://github.com/raysh454/sitelens
// @BasePath /
