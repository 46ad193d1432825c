package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/control"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/models"
)

var (
	controlFan  string
	controlMode string
)

// controlCmd represents the control command
var controlCmd = &cobra.Command{
	Use:     "control",
	Aliases: []string{"k", "kontrol"},
	Short:   "Inspect and change the device control state",
	Long:    `Commands for the fan/mode control log the devices poll.`,
}

var controlStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current control state",
	Args:  cobra.NoArgs,
	RunE:  runControlStatus,
}

var controlSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Append a control command",
	Long: `Append a control command. Omitted values are carried forward from the current state.

Examples:
  smart-air-monitor control set --fan ON
  smart-air-monitor control set --mode MANUAL`,
	Args: cobra.NoArgs,
	RunE: runControlSet,
}

func runControlStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := control.NewService(a.store).Status(cmd.Context())
	if err != nil {
		return err
	}

	return printJSON(os.Stdout, status)
}

func runControlSet(cmd *cobra.Command, args []string) error {
	var req control.Request

	if controlFan != "" {
		fan, err := models.ParseFanState(controlFan)
		if err != nil {
			return err
		}
		req.Fan = &fan
	}
	if controlMode != "" {
		mode, err := models.ParseMode(controlMode)
		if err != nil {
			return err
		}
		req.Mode = &mode
	}
	if req.Fan == nil && req.Mode == nil {
		return errors.New("at least one of --fan or --mode is required")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	command, err := control.NewService(a.store).Apply(cmd.Context(), req)
	if err != nil {
		return err
	}

	a.logger.Debug("Control command applied", "fan", command.Fan, "mode", command.Mode)

	return printJSON(os.Stdout, command)
}

func init() {
	rootCmd.AddCommand(controlCmd)

	controlCmd.AddCommand(controlStatusCmd, controlSetCmd)

	controlSetCmd.Flags().StringVar(&controlFan, "fan", "", "Fan state: ON or OFF")
	controlSetCmd.Flags().StringVar(&controlMode, "mode", "", "Mode: AUTO or MANUAL")
}
