package main

import "github.com/wavecastlabs/wavecast-cloud/internal/cli"

func main() {
	cli.Execute()
}
