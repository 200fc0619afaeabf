package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pcesar22/domesctl/internal/otamock"
)

var (
	mockListen   string
	mockFirmware string
	mockVersion  string
)

var mockOtaCmd = &cobra.Command{
	Use:   "mock-ota",
	Short: "Run a mock GitHub Releases server for OTA testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		server := otamock.New(otamock.Options{
			FirmwarePath: mockFirmware,
			Version:      mockVersion,
		})
		log.Info().Str("listen", mockListen).Str("firmware", mockFirmware).
			Str("version", mockVersion).Msg("mock OTA server starting")
		return server.Run(mockListen)
	},
}

func init() {
	mockOtaCmd.Flags().StringVar(&mockListen, "listen", ":8080", "listen address")
	mockOtaCmd.Flags().StringVar(&mockFirmware, "firmware", "build/domes.bin", "firmware binary to serve")
	mockOtaCmd.Flags().StringVar(&mockVersion, "version", "v1.1.0", "version tag to report")
	rootCmd.AddCommand(mockOtaCmd)
}
