package main

import "github.com/helm-preview/helm-preview/internal/command"

func main() {
	command.Execute()
}
