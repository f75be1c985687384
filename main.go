package main

import "github.com/iksnae/datachat/cmd"

func main() {
	cmd.Execute()
}
