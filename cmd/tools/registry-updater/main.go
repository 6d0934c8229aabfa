// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"tour-workers/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "add":
		err = runAdd(os.Args[2:])
	case "update":
		err = runUpdate(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "check-input":
		err = runCheckInput(os.Args[2:])
	default:
		help()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAdd(args []string) error {
	cmd := flag.NewFlagSet("add", flag.ExitOnError)
	path := cmd.String("path", defaultRegistryPath, "Path to registry file")
	id := cmd.String("id", "", "Activity ID (e.g., score-tour-match)")
	displayName := cmd.String("displayName", "", "Display Name (e.g., Score Tour Match)")
	description := cmd.String("description", "", "Description")
	category := cmd.String("category", "", "Category (recommendation, booking, data-access)")
	taskType := cmd.String("taskType", "", "Camunda Task Type (defaults to id)")
	version := cmd.String("version", "1.0.0", "Version")
	status := cmd.String("status", "planned", "Implementation Status (planned, in-progress, completed, verified)")
	timeout := cmd.String("timeout", "10s", "Job timeout")
	errorCodes := cmd.String("errorCodes", "", "Comma-separated error codes")
	cmd.Parse(args)

	if *taskType == "" {
		*taskType = *id
	}
	if *id == "" || *displayName == "" || *description == "" || *category == "" {
		cmd.Usage()
		return fmt.Errorf("id, displayName, description and category are required for add")
	}

	reg, err := registry.LoadOrNew(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	activity := registry.Activity{
		ID:                   *id,
		DisplayName:          *displayName,
		Description:          *description,
		Category:             *category,
		Version:              *version,
		TaskType:             *taskType,
		ImplementationStatus: *status,
		InputSchema:          map[string]interface{}{"type": "object"},
		OutputSchema:         map[string]interface{}{"type": "object"},
		ErrorCodes:           splitList(*errorCodes),
		Timeout:              *timeout,
		Retries:              3,
		Workflows:            []string{},
		Tags:                 []string{},
	}
	if err := reg.Add(activity); err != nil {
		return err
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	if err := reg.Save(*path); err != nil {
		return err
	}
	fmt.Printf("Added activity: %s\n", *id)
	return nil
}

func runUpdate(args []string) error {
	cmd := flag.NewFlagSet("update", flag.ExitOnError)
	path := cmd.String("path", defaultRegistryPath, "Path to registry file")
	id := cmd.String("id", "", "Activity ID to update")
	field := cmd.String("field", "", "Field to update (status, version, timeout, retries, ...)")
	value := cmd.String("value", "", "New value for the field")
	cmd.Parse(args)

	if *id == "" || *field == "" || *value == "" {
		cmd.Usage()
		return fmt.Errorf("id, field and value are required for update")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Update(*id, *field, *value); err != nil {
		return err
	}
	if err := reg.Save(*path); err != nil {
		return err
	}
	fmt.Printf("Updated activity %s, field %s to %s\n", *id, *field, *value)
	return nil
}

func runValidate(args []string) error {
	cmd := flag.NewFlagSet("validate", flag.ExitOnError)
	path := cmd.String("path", defaultRegistryPath, "Path to registry file")
	cmd.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

// runCheckInput validates a sample job payload against an activity's input schema.
func runCheckInput(args []string) error {
	cmd := flag.NewFlagSet("check-input", flag.ExitOnError)
	path := cmd.String("path", defaultRegistryPath, "Path to registry file")
	taskType := cmd.String("taskType", "", "Task type to check against")
	variables := cmd.String("variables", "", "Job variables as JSON")
	cmd.Parse(args)

	if *taskType == "" || *variables == "" {
		cmd.Usage()
		return fmt.Errorf("taskType and variables are required for check-input")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	activity, ok := reg.Find(*taskType)
	if !ok {
		return fmt.Errorf("%w: %s", registry.ErrActivityNotFound, *taskType)
	}
	problems, err := activity.ValidateInput(*variables)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return fmt.Errorf("input rejected:\n  %s", strings.Join(problems, "\n  "))
	}
	fmt.Println("Input accepted.")
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add          Add a new activity to the registry
  update       Update an existing activity's field
  validate     Validate the registry file and compile every schema
  check-input  Validate sample job variables against an activity's input schema
  help         Show this help message

Examples:
  registry-updater add -id notify-guide -displayName "Notify Guide" -description "Tells the guide about a booking" -category booking
  registry-updater update -id create-booking -field status -value verified
  registry-updater validate -path configs/activity-registry.json
  registry-updater check-input -taskType track-interaction -variables '{"action":"click","tourId":"1"}'

Use 'registry-updater <command> -h' for more information about a command.
`+"\n")
}
