package main

import "github.com/leads-project/leads-cluster/cmd"

func main() {
	cmd.Execute()
}
