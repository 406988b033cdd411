package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Chan-con/chat-assistant/internal/brain"
	"github.com/Chan-con/chat-assistant/internal/prompt"
)

var assumeYes bool

var sendCmd = &cobra.Command{
	Use:   "send <utterance>",
	Short: "Send one message and print the reply",
	Long: `Send one message through a fresh thread and print the classification, the
assistant's answer and the resulting reply document. General edits such as
「もっと丁寧にして」 ask for confirmation unless --yes is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		b, err := a.newBrain()
		if err != nil {
			return fmt.Errorf("%s: %w", brain.Describe(err), err)
		}
		ctx := cmd.Context()
		if err := b.Start(ctx); err != nil {
			return fmt.Errorf("%s: %w", brain.Describe(err), err)
		}
		a.rememberAssistant(b)

		res, err := b.Send(ctx, strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("%s: %w", brain.Describe(err), err)
		}
		printCommandInfo(res.Command)

		if res.Preview != nil {
			printTitle("✏️ ", "EDIT PREVIEW")
			printKeyValue("Before", res.Preview.OriginalText)
			printKeyValueHighlight("After ", res.Preview.EditedText)
			printNewline()

			if !assumeYes && !askYesNo(os.Stdin, "Apply this edit? [y/N] ") {
				if err := b.Cancel(); err != nil {
					return err
				}
				printWarning("Edit cancelled. The reply is unchanged.")
				return nil
			}
			if _, err := b.Confirm(); err != nil {
				return err
			}
		} else {
			printTitle("💬", "ASSISTANT")
			fmt.Println(res.Reply)
		}

		printTitle("📝", "REPLY")
		fmt.Println(b.Document())
		printNewline()
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify <utterance>",
	Short: "Show how an utterance is classified and the prompt it produces",
	Args:  cobra.MinimumNArgs(1),
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
		c := prompt.Classify(strings.Join(args, " "), doc)
		printCommandInfo(c)

		printTitle("📜", "INSTRUCTIONS")
		fmt.Println(prompt.NewSystem(a.cfg).Synthesize(c, doc))
		printNewline()
		return nil
	},
}

func printCommandInfo(c prompt.Command) {
	printTitle("🧭", "CLASSIFICATION")
	printKeyValueHighlight("Action      ", string(c.Action))
	printKeyValue("Command     ", fmt.Sprint(c.IsCommand))
	printKeyValue("Confirmation", fmt.Sprint(c.NeedsConfirmation))
	if c.Edit != nil {
		printKeyValue("Edit        ", fmt.Sprintf("%s/%s %q → %q", c.Edit.Kind, c.Edit.Operation, c.Edit.Original, c.Edit.Replacement))
	}
}

func askYesNo(r io.Reader, question string) bool {
	fmt.Print(cliCommand.Render(question))
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "はい":
		return true
	default:
		return false
	}
}

func init() {
	sendCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "apply general edits without asking")
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(classifyCmd)
}
