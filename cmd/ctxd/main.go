// Command ctxd is the per-project context daemon for AI coding assistants,
// and the CLI used to talk to it.
package main

func main() {
	Execute()
}
