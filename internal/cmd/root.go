package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	verbose bool
	cfgFile string
	yesFlag bool // CI/CD: skip prompts
)

var rootCmd = &cobra.Command{
	Use:   "dockhand",
	Short: "Deploy a containerized application to a server behind nginx",
	Long: `dockhand provisions a server over SSH and deploys one containerized
application to it behind an nginx reverse proxy. Runs are safe to repeat
and can be undone with --cleanup.

Quick start:
  dockhand init              # Create dockhand.yaml
  dockhand deploy            # Run the deployment pipeline
  dockhand deploy --cleanup  # Tear the deployment down

CI/CD Environment Variables:
  DOCKHAND_GIT_TOKEN            Repository access token
  DOCKHAND_SSH_KEY              SSH private key content
  DOCKHAND_KNOWN_HOSTS          SSH known_hosts content
  DOCKHAND_SKIP_HOST_KEY_CHECK  Skip host key verification (true/false)`,
	Version: Version,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for documentation generation
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed logs")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: dockhand.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Skip prompts (CI/CD mode)")

	rootCmd.SetVersionTemplate(`dockhand {{.Version}}
`)
}

// IsVerbose returns true if verbose mode is enabled
func IsVerbose() bool {
	return verbose
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// IsYesMode returns true if --yes flag is set (CI/CD mode)
func IsYesMode() bool {
	return yesFlag
}

// PrintError prints a formatted error message
func PrintError(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "❌ "+msg+"\n", args...)
}

// PrintSuccess prints a success message
func PrintSuccess(msg string, args ...interface{}) {
	fmt.Printf("✅ "+msg+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(msg string, args ...interface{}) {
	fmt.Printf("ℹ️  "+msg+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(msg string, args ...interface{}) {
	fmt.Printf("⚠️  "+msg+"\n", args...)
}

// PrintVerbose prints a message only in verbose mode
func PrintVerbose(msg string, args ...interface{}) {
	if verbose {
		fmt.Printf("   "+msg+"\n", args...)
	}
}
