// Package main provides the minder CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"minder/cli"
)

var (
	// Global flags
	model   string
	verbose bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "minder",
		Short: "Chat assistant for running a local LLM inference server",
		Long: `minder manages a local LLM inference server through conversation.

It detects whatever model backend you already have (Ollama, LM Studio,
llama.cpp, an OpenAI-compatible endpoint, or a vendor API key), then lets
that model operate the managed server through tools: read and change its
configuration, start and stop it, and read its logs.`,
	}

	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "Model override for the selected backend")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detection progress and tool output")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(startCmd())
	rootCmd.AddCommand(stopCmd())
	rootCmd.AddCommand(logsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(docsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the best detected backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Chat(context.Background(), cli.Options{Model: model, Verbose: verbose})
		},
	}
}

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Probe all candidate backends and show what was found",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Detect(context.Background())
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the managed server is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Status()
		},
	}
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the managed server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.StartServer(context.Background(), model)
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the managed server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.StopServer()
		},
	}
}

func logsCmd() *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print trailing lines from the managed server's log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Logs(lines)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to print")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change the managed server's configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ConfigGet(args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set [key] [value]",
		Short: "Store one configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ConfigSet(args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print all configuration values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ConfigList()
		},
	})
	return cmd
}

func docsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Search and read the bundled documentation",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "search [query]",
		Short: "List topics matching a keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.DocsSearch(args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show [name]",
		Short: "Print one topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.DocsShow(args[0])
		},
	})
	return cmd
}
