package main

import "github.com/blogd/blogd/cmd"

func main() {
	cmd.Execute()
}
