package main

import "github.com/startrail/starregistry/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
