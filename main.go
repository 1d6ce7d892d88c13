package main

import "github.com/striderun/strider/internal/cmd"

func main() {
	cmd.Execute()
}
