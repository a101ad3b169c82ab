package main

import "github.com/viant/taskmail/internal/cmd"

func main() {
	cmd.Execute()
}
