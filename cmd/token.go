package cmd

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newTokenCmd(rt *runtime) *cobra.Command {
	var (
		userID int
		name   string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin JWT for the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user must be a positive id")
			}
			token, err := issueToken(rt.cfg.JWTSecret, userID, name, rt.cfg.TokenTTL(), time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().IntVar(&userID, "user", 0, "user id placed in the user_id claim")
	cmd.Flags().StringVar(&name, "name", "", "optional display name claim")
	return cmd
}

func issueToken(secret string, userID int, name string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	if name != "" {
		claims["name"] = name
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return signed, errors.Wrap(err, "sign token")
}
