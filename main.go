// File: ragdesk/main.go
package main

import "ragdesk/cli"

func main() {
	cli.Execute()
}
