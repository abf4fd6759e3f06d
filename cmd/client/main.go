package main

import (
	"agrosync/cmd/client/cmd"
)

func main() {
	cmd.Execute()
}
