package main

import "github.com/permitworks/permit-management/cmd"

func main() {
	cmd.Execute()
}
