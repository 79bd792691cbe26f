package main

import "github.com/appsworld/go-classdump/cmd/classdump/cmd"

func main() {
	cmd.Execute()
}
