package main

import "github.com/Taichi-iskw/xscribe/cmd"

func main() {
	cmd.Execute()
}
