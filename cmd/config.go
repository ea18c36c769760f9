package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/devlog/internal/config"
	"github.com/rnwolfe/devlog/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and manage configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configEditCmd)
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file path",
	RunE:  runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in $EDITOR",
	RunE:  runConfigEdit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  `Set a configuration value. Run ` + "`devlog config list`" + ` to see every key.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value (environment overrides applied)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Reset a configuration value to its default",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List every configuration key with its current value",
	RunE:    runConfigList,
}

func lookupKey(key string) (*config.KeyEntry, error) {
	entry, ok := config.LookupKey(key)
	if !ok {
		return nil, fmt.Errorf("unknown config key %q (valid keys: %s)",
			key, strings.Join(config.ValidKeyNames(), ", "))
	}
	return entry, nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	entry, err := lookupKey(key)
	if err != nil {
		return err
	}

	// The file alone, so DEVLOG_* overrides are never persisted.
	cfg, err := config.LoadFile()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := entry.Set(cfg, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	ui.Ok(fmt.Sprintf("%s = %s", key, entry.Get(cfg)))
	return nil
}

func runConfigGet(_ *cobra.Command, args []string) error {
	entry, err := lookupKey(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println(entry.Get(cfg))
	return nil
}

func runConfigUnset(_ *cobra.Command, args []string) error {
	key := args[0]
	entry, err := lookupKey(key)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	entry.Unset(cfg)
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	ui.Ok(fmt.Sprintf("%s reset to %q", key, entry.DefaultStr))
	return nil
}

func runConfigList(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ui.Header("Configuration keys")
	for _, name := range config.ValidKeyNames() {
		entry := config.SchemaKeys[name]
		val := entry.Get(cfg)
		if val == "" {
			val = ui.Muted.Render("(unset)")
		}
		fmt.Printf("  %s %s\n", ui.KeyStyle.Render(fmt.Sprintf("%-34s", name)), val)
		fmt.Printf("  %s %s\n", strings.Repeat(" ", 34), ui.Muted.Render(fmt.Sprintf("%s, default %q: %s", entry.Type, entry.DefaultStr, entry.Desc)))
	}
	fmt.Println()
	return nil
}

func runConfigPath(_ *cobra.Command, _ []string) error {
	fmt.Println(config.GetPaths().ConfigFile)
	return nil
}

func runConfigEdit(_ *cobra.Command, _ []string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set; open %s yourself", config.GetPaths().ConfigFile)
	}

	paths := config.GetPaths()
	if !config.Initialized() {
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	c := exec.Command(editor, paths.ConfigFile)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("running %s: %w", editor, err)
	}

	if _, err := config.Load(); err != nil {
		ui.Warn("config no longer loads: " + err.Error())
	}
	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	paths := config.GetPaths()

	ui.Header("Configuration")
	fmt.Println()
	ui.Kv("User", userLabel(cfg.User))
	ui.Kv("Timezone", cfg.Calendar.Timezone)
	ui.Kv("Streak", cfg.Streak.Policy)
	ui.Kv("Challenge", fmt.Sprintf("%d of %d days by default", cfg.Challenge.DefaultRequiredDays, cfg.Challenge.DefaultTotalDays))
	ui.Kv("Database", cfg.Database.Driver)
	ui.Kv("Server", cfg.Server.Addr)
	fmt.Println()
	ui.Kv("Config", paths.ConfigFile)
	if cfg.Database.Driver == "sqlite" {
		db := paths.DBFile
		if cfg.Database.URL != "" {
			db = cfg.Database.URL
		}
		ui.Kv("Data", db)
	}
	fmt.Println()
	ui.Tip(fmt.Sprintf("Edit directly: %s", ui.Accent.Render("$EDITOR "+paths.ConfigFile)))
	fmt.Println()

	return nil
}

func userLabel(u config.UserConfig) string {
	switch {
	case u.ID == "":
		return ui.Muted.Render("(not set)")
	case u.Name == "":
		return u.ID
	default:
		return fmt.Sprintf("%s (%s)", u.Name, u.ID)
	}
}
