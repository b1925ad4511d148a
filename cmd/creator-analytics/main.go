// The main package for the creator-analytics executable.
package main

import (
	"github.com/urbsocial/creator-analytics/cmd"
)

func main() {
	cmd.Execute()
}
