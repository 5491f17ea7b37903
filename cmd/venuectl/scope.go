package main

import (
	"fmt"

	"github.com/ariefcatur/venue-booking/internal/venues"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newScopeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scope",
		Short: "Manage bookable venues",
	}
	cmd.AddCommand(newScopeCreateCmd())
	return cmd
}

func newScopeCreateCmd() *cobra.Command {
	var (
		s         venues.Scope
		basePrice string
		inactive  bool
	)
	c := &cobra.Command{
		Use:   "create",
		Short: "Create or update a venue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if basePrice != "" {
				p, err := decimal.NewFromString(basePrice)
				if err != nil {
					return fmt.Errorf("base price: %w", err)
				}
				if p.IsNegative() {
					return fmt.Errorf("base price cannot be negative")
				}
				s.BasePrice = decimal.NewNullDecimal(p)
			}
			s.ScheduleActive = !inactive

			e, err := loadEnv()
			if err != nil {
				return err
			}
			db, err := e.db(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := (&venues.PgRepo{DB: db}).Upsert(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved scope %q\n", s.ID)
			return nil
		},
	}
	c.Flags().StringVar(&s.ID, "id", "", "scope key")
	c.Flags().StringVar(&s.Name, "name", "", "display name")
	c.Flags().StringVar(&s.Description, "description", "", "description")
	c.Flags().StringVar(&s.Location, "location", "", "location")
	c.Flags().StringVar(&basePrice, "base-price", "", "hourly base price, e.g. 150.00")
	c.Flags().BoolVar(&inactive, "inactive", false, "disable booking for this scope")
	_ = c.MarkFlagRequired("id")
	_ = c.MarkFlagRequired("name")
	return c
}
