// Command reconcile runs a reconciliation job against a local table file,
// without going through the HTTP service.
package main

import (
	"context"
	"os"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
