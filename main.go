package main

import "github.com/gaurav-prasanna/pagecapture/cmd"

func main() {
	cmd.Execute()
}
