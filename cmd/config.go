package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tabviz/internal/config"
	"github.com/KaramelBytes/tabviz/internal/logging"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set tabviz configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "host: %s\n", c.Host)
		fmt.Fprintf(w, "port: %d\n", c.Port)
		fmt.Fprintf(w, "max_upload_mb: %d\n", c.MaxUploadMB)
		fmt.Fprintf(w, "preview_rows: %d\n", c.PreviewRows)
		fmt.Fprintf(w, "max_rows: %d\n", c.MaxRows)
		fmt.Fprintf(w, "chart_height: %d\n", c.ChartHeight)
		fmt.Fprintf(w, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(w, "log_format: %s\n", c.LogFormat)
		fmt.Fprintf(w, "log_output: %s\n", c.LogOutput)
		fmt.Fprintf(w, "cors_allowed_origins: %s\n", strings.Join(c.CORSAllowedOrigins, ","))
		fmt.Fprintf(w, "read_header_timeout_sec: %d\n", c.ReadHeaderTimeoutSec)
		fmt.Fprintf(w, "shutdown_timeout_sec: %d\n", c.ShutdownTimeoutSec)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c := *settings()
		if err := setKey(&c, key, val); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&c, cfgFile); err != nil {
			return err
		}
		cfg = &c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	intVal := func(floor int) (int, error) {
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil || i < floor {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "host":
		c.Host = val
	case "port":
		c.Port, err = intVal(1)
	case "max_upload_mb":
		c.MaxUploadMB, err = intVal(1)
	case "preview_rows":
		c.PreviewRows, err = intVal(0)
	case "max_rows":
		c.MaxRows, err = intVal(0)
	case "chart_height":
		c.ChartHeight, err = intVal(100)
	case "log_level", "log_format":
		level, format := c.LogLevel, c.LogFormat
		if key == "log_level" {
			level = val
		} else {
			format = val
		}
		if _, lerr := logging.New(level, format, ""); lerr != nil {
			return fmt.Errorf("invalid %s: %w", key, lerr)
		}
		c.LogLevel, c.LogFormat = level, format
	case "log_output":
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("log_output must not be empty")
		}
		c.LogOutput = strings.TrimSpace(val)
	case "cors_allowed_origins":
		c.CORSAllowedOrigins = nil
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSAllowedOrigins = append(c.CORSAllowedOrigins, o)
			}
		}
	case "read_header_timeout_sec":
		c.ReadHeaderTimeoutSec, err = intVal(0)
	case "shutdown_timeout_sec":
		c.ShutdownTimeoutSec, err = intVal(0)
	default:
		return fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(cfgpkg.Keys, ", "))
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
