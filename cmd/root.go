package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/hubscan/internal/ui"
)

// version is stamped at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "hubscan",
	Short:         "Find hub genes in a protein-protein interaction network",
	Long:          "Hubscan builds an interaction graph from a STRING-style link table, computes degree and betweenness centrality, and marks the nodes above a percentile threshold on either metric as hubs.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.New().Error(err.Error())
		os.Exit(1)
	}
}

// flagKeys maps persistent flags to their configuration keys.
var flagKeys = map[string]string{
	"delimiter":        "delimiter",
	"min-score":        "min_score",
	"reject-empty-ids": "reject_empty_ids",
	"percentile":       "percentile",
	"workers":          "workers",
	"partitions":       "partitions",
	"output-dir":       "output_dir",
	"bins":             "bins",
	"dot":              "dot",
	"db":               "db_path",
	"telemetry":        "telemetry",
	"metrics-file":     "metrics_file",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"log-file":         "log.file",
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .hubscan.toml)")
	pf.BoolP("verbose", "v", false, "debug logging")
	pf.String("delimiter", "space", `column delimiter: "space", "tab", "comma", "semicolon", or one character`)
	pf.Float64("min-score", 700, "keep interactions whose score is above this value")
	pf.Bool("reject-empty-ids", false, "treat rows with an empty protein id as malformed")
	pf.Float64("percentile", 0.8, "hub percentile in (0, 1)")
	pf.Int("workers", 0, "concurrent betweenness partitions (0 = GOMAXPROCS)")
	pf.Int("partitions", 0, "betweenness source partitions (0 = default)")
	pf.StringP("output-dir", "o", "hubscan-out", "directory for run artifacts")
	pf.Int("bins", 30, "histogram bins")
	pf.Bool("dot", true, "write the Graphviz network file")
	pf.String("db", "", "SQLite run history (empty disables it)")
	pf.Bool("telemetry", false, "write a JSONL event stream into the output directory")
	pf.String("metrics-file", "", "write Prometheus metrics to this textfile")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")
	pf.String("log-file", "", "also log JSON to this rotating file")

	for flag, key := range flagKeys {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".hubscan")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("HUBSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}
