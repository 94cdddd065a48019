package main

import "github.com/oceanacoustics/gobellhop/cmd"

func main() {
	cmd.Execute()
}
