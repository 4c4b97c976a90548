package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/branch-greeter/internal/config"
	"github.com/kozaktomas/branch-greeter/internal/descriptor"
)

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Inspect enrolled customers",
}

var customerSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search enrolled customers by name",
	Long: `Search enrolled customers by name, ignoring case and diacritics.
Without a query lists everyone in enrollment order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCustomerSearch,
}

var customerShowCmd = &cobra.Command{
	Use:   "show <customer-id>",
	Short: "Show a customer with visit history",
	Args:  cobra.ExactArgs(1),
	RunE:  runCustomerShow,
}

func init() {
	customerCmd.AddCommand(customerSearchCmd)
	customerCmd.AddCommand(customerShowCmd)
	rootCmd.AddCommand(customerCmd)
}

func runCustomerSearch(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) == 1 {
		query = args[0]
	}

	ctx := context.Background()
	cfg := config.Load()

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	customers, err := repos.customers.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("searching customers: %w", err)
	}
	if len(customers) == 0 {
		fmt.Println("No customers found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tDESCRIPTORS\tREGISTERED\tID")
	for _, c := range customers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.FullName, c.Category, describeDescriptors(c.Webcam, c.Uploaded),
			c.RegisteredAt.Format("2006-01-02"), c.ID)
	}
	return w.Flush()
}

func runCustomerShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	customer, err := repos.customers.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if customer == nil {
		return fmt.Errorf("customer %s not found", args[0])
	}

	fmt.Printf("Name:       %s\n", customer.FullName)
	fmt.Printf("Category:   %s\n", customer.Category)
	if customer.AccountNumber != "" {
		fmt.Printf("Account:    %s\n", customer.AccountNumber)
	}
	if customer.Phone != "" {
		fmt.Printf("Phone:      %s\n", customer.Phone)
	}
	if customer.Email != "" {
		fmt.Printf("Email:      %s\n", customer.Email)
	}
	fmt.Printf("Enrolled:   %s (%s)\n",
		customer.RegisteredAt.Format("2006-01-02"), describeDescriptors(customer.Webcam, customer.Uploaded))

	visits, err := repos.visits.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return fmt.Errorf("listing visits: %w", err)
	}

	fmt.Printf("\nVisits: %d\n", len(visits))
	for _, v := range visits {
		fmt.Printf("  %s  %s -> %s\n", v.VisitedAt.Format("2006-01-02"), v.Purpose, v.Outcome)
		if v.StaffNotes != "" {
			fmt.Printf("             notes: %s\n", v.StaffNotes)
		}
	}
	return nil
}

// describeDescriptors summarizes which reference descriptors a customer has.
func describeDescriptors(webcam, uploaded descriptor.Descriptor) string {
	switch {
	case len(webcam) > 0 && len(uploaded) > 0:
		return "webcam+uploaded"
	case len(webcam) > 0:
		return "webcam"
	case len(uploaded) > 0:
		return "uploaded"
	}
	return "none"
}
