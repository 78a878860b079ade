package main

import "github.com/surmigrate/surmigrate/cmd"

func main() {
	cmd.Execute()
}
