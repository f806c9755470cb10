package main

import "github.com/kdimtricp/facewatch/cmd"

func main() {
	cmd.Execute()
}
