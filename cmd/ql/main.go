package main

import "questlife/cmd/ql/root"

func main() {
	root.Execute()
}
