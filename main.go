package main

import "github.com/regulariza/process-management/cmd"

func main() {
	cmd.Execute()
}
