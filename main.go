package main

import "github.com/johentsch/scoresync/cmd"

func main() {
	cmd.Execute()
}
