package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query trace recorder status",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, closeConn, err := singleSession()
		if err != nil {
			return err
		}
		defer closeConn()
		status, err := session.Status()
		if err != nil {
			return err
		}
		fmt.Printf("Initialized: %t\n", status.Initialized)
		fmt.Printf("Enabled:     %t\n", status.Enabled)
		fmt.Printf("Events:      %d\n", status.EventCount)
		fmt.Printf("Dropped:     %d\n", status.DroppedCount)
		fmt.Printf("Buffer size: %d bytes\n", status.BufferSize)
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start trace recording",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, closeConn, err := singleSession()
		if err != nil {
			return err
		}
		defer closeConn()
		if err := session.Start(); err != nil {
			return err
		}
		log.Info().Msg("trace recording started")
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop trace recording",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, closeConn, err := singleSession()
		if err != nil {
			return err
		}
		defer closeConn()
		if err := session.Stop(); err != nil {
			return err
		}
		log.Info().Msg("trace recording stopped")
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the device trace buffer",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, closeConn, err := singleSession()
		if err != nil {
			return err
		}
		defer closeConn()
		if err := session.Clear(); err != nil {
			return err
		}
		log.Info().Msg("trace buffer cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, startCmd, stopCmd, clearCmd)
}
