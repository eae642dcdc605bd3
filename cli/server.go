package cli

import (
	"context"
	"fmt"
	"sort"

	"minder/server"
)

// Status prints whether the managed server is running.
func Status() error {
	manager, err := newManager()
	if err != nil {
		return err
	}

	if manager.IsRunning() {
		fmt.Printf("running (pid %d) at %s\n", manager.GetPid(), manager.BaseURL())
	} else {
		fmt.Println("not running")
	}
	return nil
}

// StartServer launches the managed server.
func StartServer(ctx context.Context, model string) error {
	manager, err := newManager()
	if err != nil {
		return err
	}

	if err := manager.Start(ctx, server.StartOptions{Model: model}); err != nil {
		return err
	}
	fmt.Printf("started (pid %d) at %s\n", manager.GetPid(), manager.BaseURL())
	return nil
}

// StopServer stops the managed server.
func StopServer() error {
	manager, err := newManager()
	if err != nil {
		return err
	}

	if err := manager.Stop(); err != nil {
		return err
	}
	fmt.Println("stopped")
	return nil
}

// Logs prints trailing lines from the managed server's log.
func Logs(lineCount int) error {
	manager, err := newManager()
	if err != nil {
		return err
	}

	logs, err := manager.ReadLogs(lineCount)
	if err != nil {
		return err
	}
	fmt.Print(logs)
	return nil
}

// ConfigGet prints one configuration value, unmasked. This command is
// the operator's own view of their machine; masking only applies to
// values flowing to a model.
func ConfigGet(key string) error {
	manager, err := newManager()
	if err != nil {
		return err
	}

	value, err := manager.GetConfig(key)
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

// ConfigSet stores one configuration value.
func ConfigSet(key, value string) error {
	manager, err := newManager()
	if err != nil {
		return err
	}

	if err := manager.SetConfig(key, value); err != nil {
		return err
	}
	fmt.Printf("%s set\n", key)
	return nil
}

// ConfigList prints all configuration values, unmasked.
func ConfigList() error {
	manager, err := newManager()
	if err != nil {
		return err
	}

	values := manager.ListConfig()
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%s=%s\n", key, values[key])
	}
	return nil
}
