package main

import "github.com/electrosur/storefront/cmd"

func main() {
	cmd.Start()
}
