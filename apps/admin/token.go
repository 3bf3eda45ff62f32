package main

import (
	"fmt"

	"github.com/trezcool/alama/core/identity"
)

func (cli *commandLine) issueToken(userID, role, name string) error {
	r, err := identity.ParseRole(role)
	if err != nil {
		return err
	}
	token, err := cli.issuer.Issue(identity.Identity{UserID: userID, Role: r, DisplayName: name})
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
