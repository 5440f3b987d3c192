// Command ragindex is the build/query/multi-query/reclaim/stats CLI.
package main

import "ragindex/internal/cli"

func main() {
	cli.Execute()
}
