package main

import "biblio-app/cmd"

func main() {
	cmd.Execute()
}
