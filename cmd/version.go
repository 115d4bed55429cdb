package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"highlights-cli/pkg/version"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long: `Print the build details and the User-Agent sent to the search service.

EXAMPLES:
  highlights-cli version
  highlights-cli version --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.GetBuildInfo()
		if !versionJSON {
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return nil
		}

		data, err := marshalVersion(info)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVarP(&versionJSON, "json", "j", false, "Output version information in JSON format")
}

// marshalVersion renders info with the User-Agent string search requests carry.
func marshalVersion(info version.BuildInfo) ([]byte, error) {
	data, err := json.MarshalIndent(struct {
		version.BuildInfo
		UserAgent string `json:"user_agent"`
	}{info, info.UserAgent()}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal version info: %w", err)
	}
	return data, nil
}
