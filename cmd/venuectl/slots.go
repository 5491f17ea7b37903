package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/ariefcatur/venue-booking/internal/redisx"
	"github.com/ariefcatur/venue-booking/internal/slots"
	"github.com/ariefcatur/venue-booking/internal/venues"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newSlotsCmd() *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Manage the priced time slots of a scope",
	}
	cmd.PersistentFlags().StringVar(&scope, "scope", "", "scope key")
	_ = cmd.MarkPersistentFlagRequired("scope")

	cmd.AddCommand(newSlotsListCmd(&scope), newSlotsSeedCmd(&scope), newSlotsAddCmd(&scope))
	return cmd
}

// withProvider runs fn against the slot provider once scope is known to exist.
func withProvider(ctx context.Context, scope string, fn func(p *slots.Provider) error) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	db, err := e.db(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := (&venues.PgRepo{DB: db}).Get(ctx, scope); err != nil {
		return err
	}
	rdb, err := redisx.New(ctx, e.cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer rdb.Close()
	return fn(slots.NewProvider(&redisx.ConfigStore{Redis: rdb}, e.cfg.DefaultSlotInterval, e.log))
}

func newSlotsListCmd(scope *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the scope's slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvider(cmd.Context(), *scope, func(p *slots.Provider) error {
				reg, err := p.Registry(cmd.Context(), *scope)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "WINDOW\tTYPE\tMULTIPLIER\tFEE")
				for _, s := range reg.Slots() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Window, s.Type, s.Multiplier, s.AdditionalFee)
				}
				return tw.Flush()
			})
		},
	}
}

func newSlotsSeedCmd(scope *string) *cobra.Command {
	var interval time.Duration
	c := &cobra.Command{
		Use:   "seed",
		Short: "Replace the scope's slots with uniform regular slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvider(cmd.Context(), *scope, func(p *slots.Provider) error {
				reg, err := p.Reseed(cmd.Context(), *scope, interval)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d slot(s)\n", reg.Len())
				return nil
			})
		},
	}
	c.Flags().DurationVar(&interval, "interval", time.Hour, "slot length")
	return c
}

func newSlotsAddCmd(scope *string) *cobra.Command {
	var typ, from, to, multiplier, fee string
	c := &cobra.Command{
		Use:   "add",
		Short: "Add a slot; the first one replaces the default slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			fromD, err := clock(from)
			if err != nil {
				return err
			}
			toD, err := clock(to)
			if err != nil {
				return err
			}
			mult, err := decimal.NewFromString(multiplier)
			if err != nil {
				return fmt.Errorf("multiplier: %w", err)
			}
			feeD, err := decimal.NewFromString(fee)
			if err != nil {
				return fmt.Errorf("fee: %w", err)
			}
			s, err := slots.NewSlot(*scope, slots.SlotType(typ), fromD, toD, mult, feeD)
			if err != nil {
				return err
			}
			return withProvider(cmd.Context(), *scope, func(p *slots.Provider) error {
				reg, err := p.AddSlot(cmd.Context(), *scope, s)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s slot %s, %d slot(s) configured\n", s.Type, s.Window, reg.Len())
				return nil
			})
		},
	}
	c.Flags().StringVar(&typ, "type", string(slots.SlotRegular), "OFF_PEAK, REGULAR or PEAK")
	c.Flags().StringVar(&from, "from", "", "start, HH:MM")
	c.Flags().StringVar(&to, "to", "", "end, HH:MM; before from means past midnight")
	c.Flags().StringVar(&multiplier, "multiplier", "1", "price multiplier")
	c.Flags().StringVar(&fee, "fee", "0", "additional fee")
	_ = c.MarkFlagRequired("from")
	_ = c.MarkFlagRequired("to")
	return c
}

func clock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("time %q must be HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
