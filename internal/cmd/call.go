package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rflorenc/cloudmc-client/internal/config"
	"github.com/rflorenc/cloudmc-client/pkg/cloudmc"
)

// CallCommand dispatches one operation and prints the resolved result.
type CallCommand struct {
	*baseCommand

	flagConnection string
	flagService    string
	flagEnv        string
	flagEntity     string
	flagOperation  string
	flagID         string
	flagBody       string
}

func (c *CallCommand) Synopsis() string {
	return "Run one entity operation and print its result"
}

func (c *CallCommand) Help() string {
	return `Usage: cloudmc call [options]

Runs a single operation against an entity and prints the resolved result as
JSON. Asynchronous tasks are polled until they finish.

Examples:
  cloudmc call -service compute -env prod -entity instances -op list
  cloudmc call -connection compute-prod -entity instances -op reboot -id 42
  cloudmc call -service compute -env prod -entity instances -op create -body @instance.json

The body is inline JSON, or @path to read it from a file.`
}

func (c *CallCommand) Run(args []string) int {
	f := c.flagSet("call")
	f.StringVar(&c.flagConnection, "connection", "", "Name of a connection from the config file")
	f.StringVar(&c.flagService, "service", "", "Service code")
	f.StringVar(&c.flagEnv, "env", "", "Environment name")
	f.StringVar(&c.flagEntity, "entity", "", "Entity type, e.g. instances")
	f.StringVar(&c.flagOperation, "op", cloudmc.OpList, "Operation: create, get, list, update, delete or a custom action")
	f.StringVar(&c.flagID, "id", "", "Entity id")
	f.StringVar(&c.flagBody, "body", "", "JSON body, or @file")
	if err := f.Parse(args); err != nil {
		return 1
	}

	cfg, err := c.loadConfig()
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}
	if err := c.resolveConnection(cfg); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if c.flagEntity == "" {
		c.UI.Error("-entity is required")
		return 1
	}

	body, err := readBody(c.flagBody)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	client, err := cfg.NewClient(c.Log, nil)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = cloudmc.WithTaskObserver(ctx, func(h cloudmc.TaskHandle) {
		c.Log.Info("task status", "task_id", h.ID, "status", h.Status)
	})

	entity := client.Service(c.flagService, c.flagEnv).Entity(c.flagEntity)
	result, err := entity.Do(ctx, c.flagOperation, c.flagID, body)
	if err != nil {
		c.UI.Error(fmt.Sprintf("%s %s failed (%s): %v", c.flagOperation, c.flagEntity, cloudmc.ErrorKind(err), err))
		return 1
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		c.UI.Error(fmt.Sprintf("error encoding result: %v", err))
		return 1
	}
	c.UI.Output(string(out))
	return 0
}

// resolveConnection fills -service and -env from a named connection.
func (c *CallCommand) resolveConnection(cfg *config.Config) error {
	if c.flagConnection != "" {
		found := false
		for _, conn := range cfg.Connections {
			if conn.Name == c.flagConnection {
				if c.flagService == "" {
					c.flagService = conn.ServiceCode
				}
				if c.flagEnv == "" {
					c.flagEnv = conn.Environment
				}
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("connection %q not found in configuration", c.flagConnection)
		}
	}
	if c.flagService == "" || c.flagEnv == "" {
		return fmt.Errorf("-service and -env (or -connection) are required")
	}
	return nil
}

func readBody(arg string) (any, error) {
	if arg == "" {
		return nil, nil
	}
	data := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("body is not valid JSON")
	}
	return json.RawMessage(data), nil
}
