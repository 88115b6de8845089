package main

import "github.com/iconidentify/mediagate/cmd/mediagate/cmd"

func main() {
	cmd.Execute()
}
