// Command adac compiles a single Ada 83 source file to LLVM IR.
package main

import "github.com/AdaDoom3/Ada83-sub000/internal/cli"

func main() {
	cli.Main()
}
