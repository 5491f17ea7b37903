package main

import (
	"fmt"

	"github.com/ariefcatur/venue-booking/internal/members"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newMemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage membership discounts",
	}
	var subject, membershipID, name, discount string
	assign := &cobra.Command{
		Use:   "assign",
		Short: "Attach a subject to a membership",
		RunE: func(cmd *cobra.Command, args []string) error {
			pct, err := decimal.NewFromString(discount)
			if err != nil {
				return fmt.Errorf("discount: %w", err)
			}
			if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(1)) {
				return fmt.Errorf("discount %s must be between 0 and 1", pct)
			}
			if membershipID == "" {
				membershipID = uuid.NewString()
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			db, err := e.db(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := (&members.PgRepo{DB: db}).Assign(cmd.Context(), subject, membershipID, name, pct); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subject %s now has membership %s (%s off)\n", subject, membershipID, pct)
			return nil
		},
	}
	assign.Flags().StringVar(&subject, "subject", "", "subject id")
	assign.Flags().StringVar(&membershipID, "membership-id", "", "membership uuid, generated when empty")
	assign.Flags().StringVar(&name, "name", "member", "membership name")
	assign.Flags().StringVar(&discount, "discount", "0", "discount fraction, 0.2 for 20% off")
	_ = assign.MarkFlagRequired("subject")
	cmd.AddCommand(assign)
	return cmd
}
