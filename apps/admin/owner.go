package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) setOwner(mobile, pwd string) error {
	if err := cli.authSvc.SetOwner(context.Background(), mobile, pwd); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Owner login updated!")
	return nil
}
