package main

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/Chan-con/chat-assistant/internal/sys"
)

var historyLimit int

var replyCmd = &cobra.Command{
	Use:   "reply",
	Short: "Work with the saved reply",
}

var replyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current reply",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.store.LoadDocument()
		if err != nil {
			return err
		}
		if doc == "" {
			printInfo("No reply yet.")
			return nil
		}
		fmt.Println(doc)
		return nil
	},
}

var replyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the current reply",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.SaveDocument(""); err != nil {
			return err
		}
		printSuccess("Reply cleared.")
		return nil
	},
}

var replyCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy the current reply to the clipboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.store.LoadDocument()
		if err != nil {
			return err
		}
		if doc == "" {
			printWarning("No reply to copy.")
			return nil
		}
		if err := clipboard.WriteAll(doc); err != nil {
			return fmt.Errorf("copying to clipboard: %w", err)
		}
		printSuccess("Reply copied to the clipboard.")
		return nil
	},
}

var replyHistoryCmd = &cobra.Command{
	Use:   "history [word]",
	Short: "Search past replies, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		past, err := a.store.Recall(query, historyLimit)
		if err != nil {
			return err
		}
		if len(past) == 0 {
			printInfo("No matching replies.")
			return nil
		}
		printTitle("🕘", "REPLY HISTORY")
		for _, p := range past {
			printBullet(truncate(strings.ReplaceAll(p, "\n", " "), 72))
		}
		printNewline()
		return nil
	},
}

var replyExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the current reply to a text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.store.LoadDocument()
		if err != nil {
			return err
		}
		fs := sys.NewLocalFS("")
		if err := fs.WriteText(args[0], doc); err != nil {
			return err
		}
		printSuccess("Reply written to " + fs.Resolve(args[0]))
		return nil
	},
}

var replyImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the current reply with the contents of a text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		text, err := sys.NewLocalFS("").ReadText(args[0])
		if err != nil {
			return err
		}
		if err := a.store.SaveDocument(text); err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("Reply imported (%d characters).", len([]rune(text))))
		return nil
	},
}

func init() {
	replyHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of replies")

	rootCmd.AddCommand(replyCmd)
	replyCmd.AddCommand(replyShowCmd)
	replyCmd.AddCommand(replyClearCmd)
	replyCmd.AddCommand(replyCopyCmd)
	replyCmd.AddCommand(replyHistoryCmd)
	replyCmd.AddCommand(replyExportCmd)
	replyCmd.AddCommand(replyImportCmd)
}
