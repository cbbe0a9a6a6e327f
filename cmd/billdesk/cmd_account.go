package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/billdesk/app/services"
	"github.com/shashiranjanraj/billdesk/internal/bootstrap"
	"github.com/shashiranjanraj/billdesk/pkg/apperror"
)

var superAdmin services.SuperAdminInput

// billdesk account:create-super-admin
var createSuperAdminCmd = &cobra.Command{
	Use:   "account:create-super-admin",
	Short: "Create a super-admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := bootstrap.New(ctx)
		if err != nil {
			return err
		}
		defer app.Close(context.Background())

		acc, err := app.Services.Auth.CreateSuperAdmin(ctx, superAdmin)
		if err != nil {
			return describe(err)
		}
		fmt.Printf("Created super-admin %s (%s)\n", acc.Email, acc.ID)
		return nil
	},
}

// describe flattens field errors so they read well on a terminal.
func describe(err error) error {
	e := apperror.From(err)
	switch {
	case e.Kind == apperror.Internal:
		return err
	case len(e.Fields) == 0:
		return errors.New(e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return fmt.Errorf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

func init() {
	f := createSuperAdminCmd.Flags()
	f.StringVar(&superAdmin.Name, "name", "", "display name")
	f.StringVar(&superAdmin.Email, "email", "", "login email")
	f.StringVar(&superAdmin.Phone, "phone", "", "optional login phone number")
	f.StringVar(&superAdmin.Password, "password", "", "password, at least 8 characters")
	_ = createSuperAdminCmd.MarkFlagRequired("name")
	_ = createSuperAdminCmd.MarkFlagRequired("email")
	_ = createSuperAdminCmd.MarkFlagRequired("password")
}
