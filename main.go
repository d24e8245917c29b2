package main

import "github.com/richardwesthaver/btrfs-progs/cmd"

func main() {
	cmd.Execute()
}
