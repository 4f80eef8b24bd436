// Package main is the entry point for bandgate.
//
//	@title			Bandgate - Fan Platform Edge Proxy
//	@version		1.0
//	@description	Edge proxy in front of the fan platform backend. Adds CORS, rewrites paths and shapes failures.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Forwarded unchanged to the backend
package main

func main() {
	Execute()
}
