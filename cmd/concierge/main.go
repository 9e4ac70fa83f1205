// Command concierge runs the travel assistant as an HTTP API, an MCP server or an interactive chat.
package main

func main() {
	Execute()
}
