package main

import "github.com/nfrund/hashrouter/cmd/routerctl/cmd"

func main() {
	cmd.Execute()
}
