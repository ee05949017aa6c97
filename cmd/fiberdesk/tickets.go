package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haloteknika/fiberdesk/internal/config"
	"github.com/haloteknika/fiberdesk/internal/store"
	"github.com/haloteknika/fiberdesk/internal/types"
	"github.com/haloteknika/fiberdesk/internal/validation"
)

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Manage trouble tickets",
}

var ticketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets in the local store",
	RunE:  runTicketsList,
}

var (
	ticketCustomer  string
	ticketServiceID string
	ticketOLT       string
	ticketFAT       string
	ticketONT       string
	ticketProblem   string
	ticketStatus    string
)

var ticketsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a ticket",
	RunE:  runTicketsAdd,
}

func init() {
	ticketsAddCmd.Flags().StringVar(&ticketCustomer, "customer", "", "customer name")
	ticketsAddCmd.Flags().StringVar(&ticketServiceID, "service-id", "", "service identifier")
	ticketsAddCmd.Flags().StringVar(&ticketOLT, "olt", "", "OLT hostname")
	ticketsAddCmd.Flags().StringVar(&ticketFAT, "fat", "", "FAT identifier")
	ticketsAddCmd.Flags().StringVar(&ticketONT, "ont", "", "ONT serial")
	ticketsAddCmd.Flags().StringVar(&ticketProblem, "problem", "", "problem summary")
	ticketsAddCmd.Flags().StringVar(&ticketStatus, "status", string(types.StatusOnProgress), "initial status")

	ticketsCmd.AddCommand(ticketsAddCmd, ticketsListCmd)
	rootCmd.AddCommand(ticketsCmd)
}

func runTicketsAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogger(cfg)

	ticket := types.Ticket{
		ID:        types.NewID(),
		Customer:  ticketCustomer,
		ServiceID: ticketServiceID,
		OLT:       ticketOLT,
		FATID:     ticketFAT,
		ONTSerial: ticketONT,
		Problem:   ticketProblem,
		Status:    types.TicketStatus(ticketStatus),
		CreatedAt: time.Now().UTC(),
	}
	if err := validation.ValidateTicket(ticket); err != nil {
		return err
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	engine := newOneShotEngine(ctx, cfg, db)
	err = engine.Update(ctx, types.CollectionTickets, func(current json.RawMessage) (json.RawMessage, bool, error) {
		var tickets []types.Ticket
		if len(current) > 0 {
			if err := json.Unmarshal(current, &tickets); err != nil {
				return nil, false, err
			}
		}
		tickets = append(tickets, ticket)
		next, err := json.Marshal(tickets)
		if err != nil {
			return nil, false, err
		}
		return next, true, nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created ticket %s\n", ticket.ID)
	return nil
}

func runTicketsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogger(cfg)

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	snapshot, err := db.Get(ctx, types.CollectionTickets)
	if err != nil {
		return err
	}

	var tickets []types.Ticket
	if err := json.Unmarshal(snapshot, &tickets); err != nil {
		return err
	}

	if len(tickets) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no tickets")
		return nil
	}

	for _, t := range tickets {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-11s  %-20s  %s\n",
			t.ID, t.Status, t.Customer, t.CreatedAt.Format(time.RFC3339))
	}
	return nil
}
