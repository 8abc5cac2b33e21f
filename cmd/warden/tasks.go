package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kestrelworks/warden/internal/config"
	"github.com/kestrelworks/warden/internal/policy"
	"github.com/kestrelworks/warden/internal/taskdef"
)

var tasksDir string

var (
	taskNameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	taskTierStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	taskDetailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List loaded task definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		dir := tasksDir
		if dir == "" {
			dir = cfg.Tasks.Dir
		}
		registry, err := taskdef.LoadDir(dir)
		if err != nil {
			return fmt.Errorf("load task definitions: %w", err)
		}

		names := registry.Names()
		if len(names) == 0 {
			fmt.Printf("no task definitions in %s\n", dir)
			return nil
		}

		for _, name := range names {
			def, _ := registry.Resolve(name)
			pol, err := policy.Resolve(def)
			if err != nil {
				return err
			}

			overflow := "overflow off"
			if pol.Overflow.Enabled {
				overflow = fmt.Sprintf("overflow %d", pol.Overflow.MaxItems)
			}
			fmt.Printf("%s  %s  %s\n",
				taskNameStyle.Render(name),
				taskTierStyle.Render(string(def.Tier)),
				taskDetailStyle.Render(fmt.Sprintf("strictness=%s enums=%s %s rule=%s",
					pol.Strictness, pol.EnumStrategy, overflow, pol.RiskRule)))
		}
		return nil
	},
}

func init() {
	tasksCmd.Flags().StringVar(&tasksDir, "tasks", "", "Task definition directory (overrides config)")
}
