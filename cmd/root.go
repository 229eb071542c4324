package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/m72elite/m72/internal/utils"
	"github.com/m72elite/m72/pkg/daystore"
	"github.com/m72elite/m72/pkg/storage"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	           _____ ____
	 _ __ ___ |___  |___ \
	| '_ ` + "`" + ` _ \   / /  __) |
	| | | | | | / /  / __/
	|_| |_| |_|/_/  |_____|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "m72",
	Short: "Mission 72 Elite: a calorie, macro and weight tracker for your terminal.",
	Long: LOGO + `m72 keeps day-by-day food logs, water, exercise burn and body weight in a
local SQLite file, shows progress against your calorie and macro targets, and
can push a copy of everything to a webhook of your choice.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.m72.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy for webhook sync and food imports (Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: ~/.config/m72/m72.sqlite)")

	viper.BindPFlag("dbpath", rootCmd.PersistentFlags().Lookup("dbpath"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set default values for all keys
	viper.SetDefault("dbpath", "")
	viper.SetDefault("slot", storage.DefaultSlot)
	viper.SetDefault("timezone", "")
	viper.SetDefault("goal.targetweight", daystore.DefaultTargetWeight)
	viper.SetDefault("sync.url", "")
	viper.SetDefault("sync.token", "")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
	viper.SetDefault("lock.timeout", "30s")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".m72")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("m72")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.m72.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
