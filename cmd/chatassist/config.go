package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Chan-con/chat-assistant/internal/sys"
)

var configOutput string

type configKind int

const (
	kindString configKind = iota
	kindBool
	kindDuration
	kindRatio
)

// configKeys lists every user-settable key and how its value is parsed.
var configKeys = map[string]configKind{
	"model.provider":              kindString,
	"model.name":                  kindString,
	"model.endpoint":              kindString,
	"assistant.name":              kindString,
	"assistant.instructions":      kindString,
	"prompt.readability":          kindBool,
	"prompt.project_instructions": kindString,
	"session.generate_timeout":    kindDuration,
	"session.poll_interval":       kindDuration,
	"session.refresh_delay":       kindDuration,
	"ui.theme":                    kindString,
	"ui.split_ratio":              kindRatio,
	"log.level":                   kindString,
}

func parseConfigValue(key, value string) (any, error) {
	kind, ok := configKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	switch kind {
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		return b, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid duration for %s: %s", key, value)
		}
		return d.String(), nil
	case kindRatio:
		r, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number for %s: %s", key, value)
		}
		return sys.ClampSplitRatio(r), nil
	default:
		if key == "model.provider" && !knownProvider(value) {
			return nil, fmt.Errorf("unknown provider %q", value)
		}
		return value, nil
	}
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "View or update configuration settings",
	Long: `View or update configuration settings for chatassist.
If no arguments are provided, it lists all current settings.
If only a key is provided, it shows the current value for that key.
If both key and value are provided, it updates the setting.

Keys:
  model.provider               Backend (assistants, openai, github-models, ollama)
  model.name                   AI model name
  model.endpoint               Base URL or Ollama endpoint
  assistant.name               Name of the hosted assistant
  assistant.instructions       Instructions the assistant is created with
  prompt.readability           Ask for line breaks at sentence boundaries
  prompt.project_instructions  Extra instructions added to every prompt
  session.generate_timeout     Generation timeout (e.g. 120s)
  session.poll_interval        Run status polling interval (e.g. 1s)
  session.refresh_delay        Delay before the thread is reloaded (e.g. 500ms)
  ui.theme                     UI theme
  ui.split_ratio               Reply pane share of the width (0.2 - 0.8)
  log.level                    Log level (debug, info, warn, error)`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := sys.NewConfigManager()
		if err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		if len(args) == 0 && configOutput == "yaml" {
			out, err := yaml.Marshal(cm.AllSettings())
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			fmt.Print(string(out))
			return nil
		}
		if len(args) == 0 {
			printTitle("⚙️ ", "CONFIGURATION")
			for _, k := range sortedConfigKeys() {
				v := fmt.Sprint(cm.Get(k))
				if k == "assistant.instructions" {
					v = truncate(firstLine(v), 40)
				}
				printKeyValue(fmt.Sprintf("%-28s", k), v)
			}
			printKeyValue(fmt.Sprintf("%-28s", "data_dir"), cm.DataDir())
			printNewline()
			return nil
		}

		key := args[0]
		if _, ok := configKeys[key]; !ok {
			return fmt.Errorf("unknown config key: %s", key)
		}
		if len(args) == 1 {
			fmt.Println(cm.Get(key))
			return nil
		}

		value, err := parseConfigValue(key, args[1])
		if err != nil {
			return err
		}
		if err := cm.Set(key, value); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Println(cliBadgeSuccess.Render("SET") + " " + cliLabel.Render(key) + " → " + cliHighlight.Render(fmt.Sprint(value)))
		return nil
	},
}

func init() {
	configCmd.Flags().StringVarP(&configOutput, "output", "o", "", "print all settings as yaml")
	rootCmd.AddCommand(configCmd)
}
