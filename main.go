package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ctypegen/ctypegen/cmd"
)

func main() {
	cobra.CheckErr(cmd.NewCLI().ExecuteContext(context.Background()))
}
