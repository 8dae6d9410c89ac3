package command

// auth.go handles token management for ratingsctl.

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"ratings/cmd/cli/authentication"
	"ratings/internal/microservices/http-api/service"
)

// authCmd represents the auth command for authentication related subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Store, mint and remove the access token ratingsctl sends to the API.`,
}

// loginCmd stores an access token issued elsewhere
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an access token in the OS keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		accessToken, _ := cmd.Flags().GetString("access-token")

		claims := &service.Claims{}
		// the CLI does not hold the signing secret; the server verifies the token
		if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
			return fmt.Errorf("not a valid token: %w", err)
		}

		if err := storeToken(accessToken, claims); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged in as %s\n", displayName(claims))
		return nil
	},
}

// tokenCmd mints a token with the server's secret, for development setups
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token (needs JWT_SECRET)",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("secret")
		if secret == "" {
			secret = os.Getenv("JWT_SECRET")
		}
		if secret == "" {
			return errors.New("--secret or JWT_SECRET is required")
		}

		userID, _ := cmd.Flags().GetString("user-id")
		username, _ := cmd.Flags().GetString("username")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		save, _ := cmd.Flags().GetBool("save")

		tokens := service.NewTokenService(secret, ttl)
		accessToken, err := tokens.Issue(userID, username, role)
		if err != nil {
			return fmt.Errorf("failed to mint token: %w", err)
		}

		if save {
			claims, err := tokens.Validate(accessToken)
			if err != nil {
				return err
			}
			if err := storeToken(accessToken, claims); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Token stored for %s\n", displayName(claims))
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), accessToken)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := authentication.GetTokens()
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Logged in as %s\n", creds.Username)
		if creds.ExpiresAt > 0 {
			expires := time.Unix(creds.ExpiresAt, 0)
			state := "valid"
			if creds.Expired(time.Now()) {
				state = "expired"
			}
			fmt.Fprintf(out, "Token %s, expires %s\n", state, expires.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authentication.DeleteTokens(); err != nil {
			return fmt.Errorf("failed to remove token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Successfully logged out.")
		return nil
	},
}

func storeToken(accessToken string, claims *service.Claims) error {
	creds := &authentication.StoredCredentials{
		AccessToken: accessToken,
		Username:    displayName(claims),
	}
	if claims.ExpiresAt != nil {
		creds.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if err := authentication.StoreTokens(creds); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func displayName(claims *service.Claims) string {
	if claims.Username != "" {
		return claims.Username
	}
	return claims.UserID
}

// init function to add auth commands to root command
func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(tokenCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(logoutCmd)

	loginCmd.Flags().String("access-token", "", "Access token to store")
	loginCmd.MarkFlagRequired("access-token")

	tokenCmd.Flags().String("secret", "", "Signing secret (defaults to $JWT_SECRET)")
	tokenCmd.Flags().String("user-id", "", "User id claim")
	tokenCmd.Flags().String("username", "", "Username claim")
	tokenCmd.Flags().String("role", "user", "Role claim")
	tokenCmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	tokenCmd.Flags().Bool("save", false, "Store the token in the keyring instead of printing it")
	tokenCmd.MarkFlagRequired("user-id")
}
