package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/dirsite/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a running search endpoint against the card markup contract",
	Long: `Posts each --query to the search endpoint and checks that the returned cards
follow the markup the map relies on and agree with the structured results in
the HX-Trigger-After-Swap header. With --browser, the site is also loaded in
headless Chrome and its cards and map markers are counted.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().String("url", "", "search endpoint (default http://localhost:{port}{search_path})")
	verifyCmd.Flags().StringArrayP("query", "q", []string{""}, "query to check, repeatable")
	verifyCmd.Flags().Bool("browser", false, "also check the page in headless Chrome")
	verifyCmd.Flags().String("page", "", "page for --browser (default http://localhost:{port}/)")
	verifyCmd.Flags().Duration("timeout", 30*time.Second, "timeout per check")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	endpoint, _ := cmd.Flags().GetString("url")
	if endpoint == "" {
		endpoint = fmt.Sprintf("http://localhost:%d%s", cfg.Server.Port, cfg.Server.SearchPath)
	}
	queries, _ := cmd.Flags().GetStringArray("query")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	client := &http.Client{Timeout: timeout}
	failed := 0
	for _, q := range queries {
		rep, err := verify.Check(cmd.Context(), client, endpoint, q)
		if err != nil {
			return err
		}
		fmt.Printf("q=%q: status %d, %d card(s), %d marker(s)\n", q, rep.Status, len(rep.Cards), rep.Markers)
		for _, p := range rep.Problems {
			fmt.Printf("  ✗ %s\n", p)
		}
		if !rep.OK() {
			failed++
		}
	}

	if browser, _ := cmd.Flags().GetBool("browser"); browser {
		page, _ := cmd.Flags().GetString("page")
		if page == "" {
			page = fmt.Sprintf("http://localhost:%d/", cfg.Server.Port)
		}
		q := ""
		for _, candidate := range queries {
			if candidate != "" {
				q = candidate
				break
			}
		}
		rep, err := verify.Browser(cmd.Context(), page, q, verify.BrowserOptions{Headless: true, Timeout: timeout})
		if err != nil {
			return fmt.Errorf("browser check: %w", err)
		}
		fmt.Printf("browser %s: %d card(s), %d marker(s)\n", page, rep.Cards, rep.Markers)
		if !rep.MapReady {
			fmt.Println("  ✗ map libraries did not load")
			failed++
		}
		if q != "" {
			fmt.Printf("browser q=%q: %d card(s), %d marker(s)\n", q, rep.SearchCards, rep.SearchMarkers)
		}
		if rep.Markers > rep.Cards || rep.SearchMarkers > rep.SearchCards {
			fmt.Println("  ✗ more markers than cards")
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Println("All checks passed.")
	return nil
}
