package command

import (
	"errors"
	"fmt"

	"bukinn/internal/logger"
	"bukinn/internal/microservices/http-api/models"
	"bukinn/internal/microservices/http-api/repository"
	"bukinn/internal/otp"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

// Signup never creates admins, so this is the only way to get one.
var userPromoteCmd = &cobra.Command{
	Use:   "promote <phone>",
	Short: "Give an existing account the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], models.RoleAdmin)
	},
}

var userDemoteCmd = &cobra.Command{
	Use:   "demote <phone>",
	Short: "Return an admin account to the user role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], models.RoleUser)
	},
}

func setRole(cmd *cobra.Command, phone, role string) error {
	if !otp.ValidPhone(phone) {
		return fmt.Errorf("%q is not an E.164 phone number", phone)
	}
	err := repository.NewUserRepository(db).SetRoleByPhone(cmd.Context(), phone, role)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("no account with phone %s", logger.MaskPhone(phone))
	}
	if err != nil {
		return err
	}
	log.Info("role updated", zap.String("phone", logger.MaskPhone(phone)), zap.String("role", role))
	return nil
}

func init() {
	userCmd.AddCommand(userPromoteCmd, userDemoteCmd)
	rootCmd.AddCommand(userCmd)
}
