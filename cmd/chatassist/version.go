package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Chan-con/chat-assistant/internal/sys"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and active backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionShort {
			fmt.Println(Version)
			return nil
		}

		printTitle("🗨️ ", "CHATASSIST "+Version)
		printKeyValue("Commit  ", Commit)
		printKeyValue("Built   ", BuildDate)
		printKeyValue("Runtime ", fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH))

		if cm, err := sys.NewConfigManager(); err == nil {
			if cfg, err := cm.Load(); err == nil {
				printKeyValueHighlight("Backend ", fmt.Sprintf("%s (%s)", valueOr(cfg.Model.Provider, "assistants"), displayModelName(cfg.Model.Provider, cfg.Model.Name)))
				printKeyValue("Data    ", cm.DataDir())
			}
		}
		printNewline()
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version")
	rootCmd.AddCommand(versionCmd)
}
