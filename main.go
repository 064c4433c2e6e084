package main

import "library-circulation/cmd"

func main() {
	cmd.Execute()
}
