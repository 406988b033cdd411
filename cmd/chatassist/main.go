package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Chan-con/chat-assistant/internal/brain"
	"github.com/Chan-con/chat-assistant/internal/model"
	"github.com/Chan-con/chat-assistant/internal/sys"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var verbose bool

func init() {
	// Try to populate Version and Commit from build info if they are defaults
	if info, ok := debug.ReadBuildInfo(); ok {
		if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}

		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if Commit == "none" {
					Commit = setting.Value
				}
			case "vcs.time":
				if BuildDate == "unknown" {
					BuildDate = setting.Value
				}
			}
		}
	}

	if Version == "dev" {
		if _, err := os.Stat(".git"); err == nil {
			branchCmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
			if branchBytes, err := branchCmd.Output(); err == nil {
				Version = "dev-" + strings.TrimSpace(string(branchBytes))
			}
		}
	}
}

var rootCmd = &cobra.Command{
	Use:     "chatassist",
	Version: Version,
	Short:   "chatassist - Japanese chat reply composer",
	Long: `chatassist turns rough notes into polished Japanese chat replies.
Type what you want to say, ask for edits such as 「Aを削除して」, and copy the
finished reply from the reply pane.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		b, backendErr := a.newBrain()
		m := initialModel(ctx, a, b)
		if err := b.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("starting session")
			m.setNotice(brain.Describe(err), true)
		} else {
			a.rememberAssistant(b)
		}
		if backendErr != nil && !isMissingCredentials(backendErr) {
			m.setNotice(backendErr.Error(), true)
		}
		m.refreshTimeline()

		p := tea.NewProgram(m, tea.WithAltScreen())
		a.cm.Watch(func(cfg *sys.Config) { p.Send(configChangedMsg{cfg: cfg}) })
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running ui: %w", err)
		}
		return nil
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Discover and manage AI models",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List models from the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cfg.Model.Provider == "" || a.cfg.Model.Provider == "assistants" {
			printInfo("The assistants backend uses model.name directly: " + a.cfg.Model.Name)
			printCommand("Use", "chatassist models use <provider> <model>", "to switch to a chat provider.")
			return nil
		}

		backend, err := model.NewBackend(a.settings())
		if err != nil {
			return err
		}
		pb, ok := backend.(*model.ProviderBackend)
		if !ok {
			return fmt.Errorf("provider %q cannot list models", a.cfg.Model.Provider)
		}

		printTitle("🔍", "AVAILABLE MODELS")
		names, err := pb.Model().ListModels(cmd.Context())
		if err != nil {
			return fmt.Errorf("discovering models: %w", err)
		}
		if len(names) == 0 {
			printWarning("No models found. Use 'auth' to configure providers.")
			return nil
		}
		for _, n := range names {
			printBulletWithMeta(displayModelName(a.cfg.Model.Provider, n), a.cfg.Model.Provider+": "+n)
		}
		printNewline()
		printCommand("Use", "chatassist models use <provider> <model>", "to switch.")
		return nil
	},
}

var modelsUseCmd = &cobra.Command{
	Use:   "use <provider> <model>",
	Short: "Switch the active provider and model",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, name := args[0], args[1]
		if !knownProvider(provider) {
			return fmt.Errorf("unknown provider %q (want one of %s)", provider, strings.Join(backendNames(), ", "))
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.cfg.Model.Provider = provider
		a.cfg.Model.Name = name
		if err := a.cm.Save(a.cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		// An assistant is bound to its model.
		a.forgetAssistant()
		printSuccess(fmt.Sprintf("Switched to %s via %s", name, provider))
		return nil
	},
}

var sysCmd = &cobra.Command{
	Use:   "sys",
	Short: "System resource controls",
}

var sysStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show system resource usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshot, err := sys.NewMonitor().GetSnapshot()
		if err != nil {
			return err
		}
		printTitle("📊", "POWER SNAPSHOT")
		printKeyValue("CPU Usage ", fmt.Sprintf("%.1f%%", snapshot.CPUUsage))
		printKeyValue("Mem Usage ", fmt.Sprintf("%.1f%%", snapshot.MemoryUsage))
		printKeyValue("RSS       ", fmt.Sprintf("%.1f MiB", float64(snapshot.ProcessRSS)/(1<<20)))
		printKeyValue("Goroutines", fmt.Sprint(snapshot.Goroutines))
		printNewline()
		return nil
	},
}

func backendNames() []string {
	return append([]string{"assistants"}, model.Providers()...)
}

func knownProvider(name string) bool {
	for _, n := range backendNames() {
		if n == name {
			return true
		}
	}
	return false
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "write debug logs")
	rootCmd.SetOut(NewColorWriter(os.Stdout))

	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsUseCmd)

	rootCmd.AddCommand(sysCmd)
	sysCmd.AddCommand(sysStatsCmd)

	if err := rootCmd.Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}
