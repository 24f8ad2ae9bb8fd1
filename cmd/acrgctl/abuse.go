package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var abuseCmd = &cobra.Command{
	Use:   "abuse",
	Short: "Run advisory abuse reports",
}

var abuseScoreCmd = &cobra.Command{
	Use:   "score <user-id>",
	Short: "Score one user's activity against their tier limits",
	Args:  cobra.ExactArgs(1),
	RunE:  runAbuseScore,
}

var abuseIPCmd = &cobra.Command{
	Use:   "ip <address>",
	Short: "Check recent anonymous uploads from one address",
	Args:  cobra.ExactArgs(1),
	RunE:  runAbuseIP,
}

var abuseScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Score every active owner and print the flagged reports",
	RunE:  runAbuseScan,
}

func init() {
	rootCmd.AddCommand(abuseCmd)
	abuseCmd.AddCommand(abuseScoreCmd, abuseIPCmd, abuseScanCmd)
}

func runAbuseScore(cmd *cobra.Command, args []string) error {
	s, err := connect()
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.admin.AbuseReport(args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, report)
}

func runAbuseIP(cmd *cobra.Command, args []string) error {
	s, err := connect()
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.admin.CheckIP(args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, report)
}

func runAbuseScan(cmd *cobra.Command, args []string) error {
	s, err := connect()
	if err != nil {
		return err
	}
	defer s.Close()

	reports, err := s.admin.Scan(cmd.Context())
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "No accounts flagged.")
		return err
	}
	return printJSON(cmd, reports)
}
