package main

import "github.com/SoarinFerret/FocusWarden/cmd/fwctl/arg"

func main() {
	arg.Execute()
}
