package main

import "github.com/theleywin/talent-nest-network/src/cmd"

func main() {
	cmd.Execute()
}
