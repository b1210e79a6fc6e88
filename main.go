package main

import "github.com/chirplab/chirp/cmd"

func main() {
	cmd.Execute()
}
