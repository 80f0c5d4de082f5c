package main

import "github.com/eshaffer321/order-reconciler/internal/cli"

func main() {
	cli.Execute()
}
