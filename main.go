package main

import "github.com/clinicbook/backend/cmd"

func main() {
	cmd.Execute()
}
