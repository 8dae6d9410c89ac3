package command

// root.go defines the root command for ratingsctl and its global flags.

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ratings/cmd/cli/authentication"
	"ratings/cmd/cli/command/client"
)

var (
	apiURL string // Global flag for API server URL
	token  string // authentication token (jwt), overrides the keyring
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ratingsctl",
	Short: "ratingsctl - Ratings service command line interface",
	Long: `ratingsctl talks to the ratings HTTP API. It can:
- Rate items of any module
- Show, list and count item ratings
- Mint and store development access tokens

Use "ratingsctl command --help" to see all available commands.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err) // Print error to standard error
		os.Exit(1)
	}
}

func init() {
	defaultAPI := os.Getenv("RATINGS_API_URL")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:8080"
	}

	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultAPI, "API server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "access token (defaults to the one stored by 'auth login')")

	rootCmd.AddCommand(ratingCmd)
	rootCmd.AddCommand(authCmd)
}

// GetAuthenticatedClient returns an API client carrying the --token flag or
// the keyring token. Without either the client calls the API anonymously.
func GetAuthenticatedClient() *client.HTTPClient {
	c := client.NewHTTPClient(apiURL)
	if token != "" {
		c.SetToken(token)
		return c
	}
	if creds, err := authentication.GetTokens(); err == nil && !creds.Expired(time.Now()) {
		c.SetToken(creds.AccessToken)
	}
	return c
}
