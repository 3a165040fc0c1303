package main

import "github.com/user/bmvault/cmd"

func main() {
	cmd.Execute()
}
