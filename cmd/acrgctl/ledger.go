package main

import (
	"fmt"

	"github.com/lac-hong-legacy/sharegate/dto"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var ledgerFlags struct {
	ip     string
	login  string
	device string
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect or reset threat ledger records",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show failures, blocks and bans for an identifier set",
	RunE:  runLedgerShow,
}

var ledgerResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear failures, blocks and bans for an identifier set",
	RunE:  runLedgerReset,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerShowCmd, ledgerResetCmd)

	ledgerCmd.PersistentFlags().StringVar(&ledgerFlags.ip, "ip", "", "client IP address")
	ledgerCmd.PersistentFlags().StringVar(&ledgerFlags.login, "login", "", "login identifier (hashed before lookup)")
	ledgerCmd.PersistentFlags().StringVar(&ledgerFlags.device, "device", "", "device ID")
}

func ledgerQuery() (dto.LedgerQuery, error) {
	q := dto.LedgerQuery{IP: ledgerFlags.ip, Login: ledgerFlags.login, Device: ledgerFlags.device}
	if q.Empty() {
		return q, fmt.Errorf("at least one of --ip, --login or --device is required")
	}
	if err := q.Validate(); err != nil {
		return q, err
	}
	return q, nil
}

func runLedgerShow(cmd *cobra.Command, args []string) error {
	q, err := ledgerQuery()
	if err != nil {
		return err
	}

	s, err := connect()
	if err != nil {
		return err
	}
	defer s.Close()

	resp, err := s.admin.InspectLedger(cmd.Context(), q)
	if err != nil {
		return err
	}
	return printJSON(cmd, resp)
}

func runLedgerReset(cmd *cobra.Command, args []string) error {
	q, err := ledgerQuery()
	if err != nil {
		return err
	}

	s, err := connect()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.admin.ResetLedger(cmd.Context(), q); err != nil {
		return err
	}

	log.Info().Str("ip", q.IP).Str("device", q.Device).Bool("login", q.Login != "").Msg("Ledger reset")
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "ledger reset")
	return err
}
