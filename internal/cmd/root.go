package cmd

import (
	glamour "github.com/charmbracelet/glamour/styles"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dotcommander/yteam/internal/config"
	"github.com/dotcommander/yteam/internal/present"
	"github.com/dotcommander/yteam/internal/script"
	"github.com/dotcommander/yteam/internal/session"
)

type runtime struct {
	build  BuildInfo
	cfg    config.Config
	cfgErr error
	log    *zap.Logger

	// factory replaces the model-backed participants; nil means real clients.
	factory session.Factory
	// interactive reports whether menus and confirmations may prompt.
	interactive func() bool
}

func (rt *runtime) logger() *zap.Logger {
	if rt.log == nil {
		rt.log = initLogger(rt.cfg.Settings)
	}
	return rt.log
}

func (rt *runtime) isInteractive() bool {
	if rt.interactive != nil {
		return rt.interactive()
	}
	return present.IsInputTTY() && present.IsOutputTTY() && !rt.cfg.Raw
}

// NewRootCmd constructs the Cobra root command.
func NewRootCmd(build BuildInfo, cfg config.Config, cfgErr error) *cobra.Command {
	// XXX: unset error styles in Glamour dark and light styles.
	glamour.DarkStyleConfig.CodeBlock.Chroma.Error.BackgroundColor = new(string)
	glamour.LightStyleConfig.CodeBlock.Chroma.Error.BackgroundColor = new(string)

	return newRootCmd(&runtime{build: resolveBuildInfo(build), cfg: cfg, cfgErr: cfgErr})
}

func newRootCmd(rt *runtime) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "yteam",
		Short:         "Send scripted prompts to a team of models.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example:       randomExample(),
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return rt.cfgErr
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	rootCmd.SetUsageFunc(usageFunc)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newFlagParseError(err)
	})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.Version = rt.build.Version
	rootCmd.SetVersionTemplate(versionTemplate(rt.build))

	initRootFlags(rootCmd, &rt.cfg)

	rootCmd.AddCommand(newTryCmd(rt))
	rootCmd.AddCommand(newSurveyCmd(rt))
	rootCmd.AddCommand(newDemoCmd(rt))
	rootCmd.AddCommand(newRunCmd(rt))
	rootCmd.AddCommand(newModelsCmd(rt))
	rootCmd.AddCommand(newHistoryCmd(rt))
	rootCmd.AddCommand(newSettingsCmd(rt))
	rootCmd.AddCommand(newManCmd(rootCmd))

	rootCmd.InitDefaultCompletionCmd()

	return rootCmd
}

// playScenarios is the body shared by every command that runs scenarios.
func (rt *runtime) playScenarios(cmd *cobra.Command, scenarios []script.Scenario) error {
	p, err := rt.newPlayer(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer p.Close() //nolint:errcheck
	defer func() { _ = rt.logger().Sync() }()
	return p.playAll(cmd.Context(), scenarios)
}
