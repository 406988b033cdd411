package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Chan-con/chat-assistant/internal/vault"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage AI provider credentials",
	Long:  "Securely store and manage API keys for OpenAI, GitHub Models and Ollama.",
}

// storeSecret saves a credential. Changing credentials invalidates the saved
// assistant and the session tied to it.
func storeSecret(key, value, what string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.vault.Set(key, value); err != nil {
		return fmt.Errorf("storing secret: %w", err)
	}
	a.forgetAssistant()
	printSuccess(what + " stored successfully in secure vault.")
	return nil
}

var authOpenAICmd = &cobra.Command{
	Use:   "openai <api-key>",
	Short: "Configure OpenAI API key (assistants and openai providers)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storeSecret(vault.KeyOpenAI, args[0], "OpenAI API key")
	},
}

var authGithubCmd = &cobra.Command{
	Use:   "github-models <token>",
	Short: "Configure GitHub Models PAT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storeSecret(vault.KeyGithubModels, args[0], "GitHub Models PAT")
	},
}

var authOllamaCmd = &cobra.Command{
	Use:   "ollama <endpoint>",
	Short: "Configure Ollama endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storeSecret(vault.KeyOllama, args[0], "Ollama endpoint")
	},
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored credential and reset the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		for _, k := range vault.Keys {
			if err := a.vault.Delete(k); err != nil {
				return err
			}
		}
		a.forgetAssistant()
		printSuccess("Credentials cleared. The next session starts with a new assistant and thread.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credentials are stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		printTitle("🔑", "CREDENTIALS")
		for _, k := range vault.Keys {
			state := "not set"
			if v := a.secret(k); v != "" {
				state = "set (" + mask(v) + ")"
			}
			printKeyValue(fmt.Sprintf("%-20s", k), state)
		}
		printKeyValueHighlight(fmt.Sprintf("%-20s", "active provider"), a.cfg.Model.Provider)
		printNewline()
		return nil
	},
}

// mask keeps the last four characters of a secret.
func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authOpenAICmd)
	authCmd.AddCommand(authGithubCmd)
	authCmd.AddCommand(authOllamaCmd)
	authCmd.AddCommand(authClearCmd)
	authCmd.AddCommand(authStatusCmd)
}
