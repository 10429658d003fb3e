package main

import "github.com/loojk2008/ferrugo/cmd"

func main() {
	cmd.Execute()
}
