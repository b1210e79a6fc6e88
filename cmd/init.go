package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chirplab/chirp/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize chirp configuration",
	Long:  `Creates the ~/.chirp directory with config.yaml and a .env credential template.`,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const envTemplate = `# chirp credentials. Loaded on startup; the shell environment wins.

# X account used for searching.
X_USERNAME=
X_PASSWORD=
# Only needed when X asks for an email confirmation on login.
X_EMAIL=

# Key for the LLM that writes queries and answers.
OPENAI_API_KEY=
`

func runInit(cmd *cobra.Command, args []string) error {
	dir := config.Dir()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	cfg := config.Default()
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("Created config at %s/config.yaml\n", dir)

	// Never clobber credentials someone already filled in.
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		if err := os.WriteFile(envPath, []byte(envTemplate), 0600); err != nil {
			return fmt.Errorf("failed to write env template: %w", err)
		}
		fmt.Printf("Created credential template at %s\n", envPath)
	} else {
		fmt.Printf("Keeping existing %s\n", envPath)
	}

	fmt.Println("\nChirp initialized! Next steps:")
	fmt.Printf("  1. Fill in %s\n", envPath)
	fmt.Println("  2. chirp check                  Verify both services")
	fmt.Println("  3. chirp ask \"your question\"    Get an answer")

	return nil
}
