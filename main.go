package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JeffreyLin1/peetleAI/01_topics"
	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/server"
)

var (
	configPath string
	topicFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "peetle",
	Short: "Turns a topic into a short vertical video of two cartoon characters discussing it",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is for local dev; deployments set real env vars.
		_ = godotenv.Load()
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one video end to end",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		state, err := NewPipeline(cfg).Run(cmd.Context(), topicFlag)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%.1fs)\n", state.VideoFile, state.DurationSec)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve video generation over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		pipeline := NewPipeline(cfg)
		return server.New(cfg, pipeline.Run).Run()
	},
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Pick and print the next topic without generating anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		suggester, err := topics.NewSuggester(cfg)
		if err != nil {
			return err
		}
		topic, err := suggester.Suggest(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(topic)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	generateCmd.Flags().StringVar(&topicFlag, "topic", "", "topic to discuss (default: pick one from Reddit)")
	rootCmd.AddCommand(generateCmd, serveCmd, topicsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
