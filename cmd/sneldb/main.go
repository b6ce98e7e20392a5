// Command sneldb is a small interactive client for a SnelDB server: it
// executes commands over any of the supported transports and renders the
// normalized records as a table.
package main

func main() {
	Execute()
}
